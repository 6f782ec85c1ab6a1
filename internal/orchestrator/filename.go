package orchestrator

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SuggestedFilename derives the download filename offered to callers:
// the package name with accents stripped and unsafe characters replaced,
// suffixed with the version.
func SuggestedFilename(name, version string) string {
	base := asciiSlug(name)
	if base == "" {
		base = "paquete"
	}
	if version == "" {
		return base + ".zip"
	}
	return fmt.Sprintf("%s_v%s.zip", base, asciiSlug(version))
}

// asciiSlug folds accented characters to their base letter and replaces
// anything outside [A-Za-z0-9._-] with an underscore.
func asciiSlug(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
