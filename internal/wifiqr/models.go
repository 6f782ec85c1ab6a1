package wifiqr

import (
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
)

// Level is the QR error-correction level.
type Level string

const (
	LevelL Level = "L" // ~7% recovery
	LevelM Level = "M" // ~15% recovery
	LevelQ Level = "Q" // ~25% recovery
	LevelH Level = "H" // ~30% recovery
)

// ParseLevel converts a string into a known Level.
func ParseLevel(value string) (Level, bool) {
	normalized := Level(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case LevelL, LevelM, LevelQ, LevelH:
		return normalized, true
	}
	return "", false
}

// SupportsLogo reports whether the level retains enough error-correction
// budget to overlay a logo.
func (l Level) SupportsLogo() bool {
	return l == LevelQ || l == LevelH
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelM:
		return qrcode.Medium
	case LevelQ:
		return qrcode.High
	case LevelH:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// CodeStatus is the soft activation state of a QR code.
type CodeStatus string

const (
	StatusActivo   CodeStatus = "activo"
	StatusInactivo CodeStatus = "inactivo"
)

// ParseCodeStatus converts a string into a known CodeStatus.
func ParseCodeStatus(value string) (CodeStatus, bool) {
	normalized := CodeStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusActivo, StatusInactivo:
		return normalized, true
	}
	return "", false
}

// QRCode is one provisioned WiFi onboarding code. An empty BusNumber marks a
// company-wide code rather than one bound to a single vehicle.
type QRCode struct {
	ID            string
	CompanyID     int64
	BusNumber     string
	SSID          string
	Password      string
	PortalURL     string
	ImagePath     string
	Size          int
	Level         Level
	Status        CodeStatus
	DownloadCount int
	ScanCount     int
	CreatedAt     time.Time
}
