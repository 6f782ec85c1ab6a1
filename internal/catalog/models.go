package catalog

import (
	"fmt"
	"strings"
)

// ContentType is the closed set of media kinds a package may carry.
type ContentType string

const (
	TypeMovie ContentType = "movie"
	TypeMusic ContentType = "music"
	TypeGame  ContentType = "game"
)

// ParseContentType converts a string into a known ContentType.
func ParseContentType(value string) (ContentType, bool) {
	normalized := ContentType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case TypeMovie, TypeMusic, TypeGame:
		return normalized, true
	}
	return "", false
}

// GroupDir returns the archive directory a content type is packaged under.
func (t ContentType) GroupDir() string {
	switch t {
	case TypeMovie:
		return "movies"
	case TypeMusic:
		return "music"
	case TypeGame:
		return "games"
	default:
		panic(fmt.Sprintf("unknown content type %q", string(t)))
	}
}

// Content is one distributable media record.
type Content struct {
	ID              int64
	Type            ContentType
	Title           string
	Path            string
	SizeBytes       int64
	ChecksumSHA256  string
	DurationSeconds int
}

// Company is a client organization owning packages and QR codes.
type Company struct {
	ID             int64
	Name           string
	LogoPath       string
	PrimaryColor   string
	SecondaryColor string
}

// AdKind is the closed set of advertising slot kinds.
type AdKind string

const (
	AdPreroll AdKind = "preroll"
	AdMidroll AdKind = "midroll"
	AdBanner  AdKind = "banner"
)

// ParseAdKind converts a string into a known AdKind.
func ParseAdKind(value string) (AdKind, bool) {
	normalized := AdKind(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case AdPreroll, AdMidroll, AdBanner:
		return normalized, true
	}
	return "", false
}

// Advertising is one advertising asset record.
type Advertising struct {
	ID              int64
	Kind            AdKind
	Title           string
	Path            string
	DurationSeconds int
}
