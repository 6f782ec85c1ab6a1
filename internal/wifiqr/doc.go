// Package wifiqr encodes WiFi credentials into scannable onboarding codes.
//
// The payload follows the WIFI: URI scheme phone scanners expect, with the
// exact escaping rules the format requires; EncodePayload and ParsePayload
// round-trip any ssid/password. Rendering overlays an optional company logo
// on an opaque quiet-zone pad, which burns error-correction budget and is
// therefore only permitted at correction level Q or H.
//
// Bus numbers are allocated per company from a transactional counter so
// concurrent bulk requests never issue overlapping sequences.
package wifiqr
