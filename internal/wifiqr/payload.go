package wifiqr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EncodePayload builds the WIFI: onboarding string for WPA networks:
//
//	WIFI:T:WPA;S:<ssid>;P:<password>;H:<true|false>;;
//
// Backslash, semicolon, comma, double quote, and colon in the ssid or
// password are escaped with a single backslash. Escaping the backslash first
// keeps already-escaped characters from being escaped twice.
func EncodePayload(ssid, password string, hidden bool) string {
	return fmt.Sprintf(
		"WIFI:T:WPA;S:%s;P:%s;H:%t;;",
		escapeField(ssid),
		escapeField(password),
		hidden,
	)
}

// PayloadWithPortal appends the captive-portal URL on its own line after the
// WiFi payload; this is the full content encoded into the QR image.
func PayloadWithPortal(ssid, password string, hidden bool, portalURL string) string {
	return EncodePayload(ssid, password, hidden) + "\n" + portalURL
}

// PortalURL builds the captive-portal address end users land on after joining
// the network. busNumber is empty for company-wide codes.
func PortalURL(scheme, gateway string, companyID int64, busNumber string) string {
	// Built by hand to keep the documented company-then-bus parameter order;
	// url.Values.Encode sorts keys alphabetically.
	query := "company=" + strconv.FormatInt(companyID, 10)
	if busNumber != "" {
		query += "&bus=" + url.QueryEscape(busNumber)
	}
	return fmt.Sprintf("%s://%s/portal/?%s", scheme, gateway, query)
}

// escapedRunes is the set of payload characters requiring a backslash prefix.
const escapedRunes = `\;,":`

func escapeField(value string) string {
	if !strings.ContainsAny(value, escapedRunes) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value) + 4)
	for _, r := range value {
		if strings.ContainsRune(escapedRunes, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Credentials is the decoded form of a WiFi onboarding payload.
type Credentials struct {
	SSID     string
	Password string
	Hidden   bool
}

// ParsePayload is the inverse of EncodePayload. It recovers the original
// ssid/password exactly, including escaped characters.
func ParsePayload(payload string) (Credentials, error) {
	var creds Credentials
	const prefix = "WIFI:"
	if !strings.HasPrefix(payload, prefix) {
		return creds, fmt.Errorf("wifi payload: missing %q prefix", prefix)
	}
	rest := payload[len(prefix):]

	fields, err := splitFields(rest)
	if err != nil {
		return creds, err
	}
	for key, value := range fields {
		switch key {
		case "T":
			if value != "WPA" {
				return creds, fmt.Errorf("wifi payload: unsupported auth type %q", value)
			}
		case "S":
			creds.SSID = value
		case "P":
			creds.Password = value
		case "H":
			creds.Hidden = value == "true"
		}
	}
	if creds.SSID == "" {
		return creds, fmt.Errorf("wifi payload: missing ssid field")
	}
	return creds, nil
}

// splitFields tokenizes key:value pairs separated by unescaped semicolons,
// unescaping backslash sequences in values.
func splitFields(data string) (map[string]string, error) {
	fields := make(map[string]string)
	var key, value strings.Builder
	inKey := true
	escaped := false

	flush := func() {
		if key.Len() > 0 {
			fields[key.String()] = value.String()
		}
		key.Reset()
		value.Reset()
		inKey = true
	}

	for _, r := range data {
		if escaped {
			value.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && !inKey:
			escaped = true
		case r == ':' && inKey:
			inKey = false
		case r == ';':
			flush()
		case inKey:
			key.WriteRune(r)
		default:
			value.WriteRune(r)
		}
	}
	if escaped {
		return nil, fmt.Errorf("wifi payload: dangling escape")
	}
	flush()
	return fields, nil
}
