package packaging

import (
	"encoding/json"
	"strings"
	"time"

	"playmi/internal/catalog"
)

// Status represents the lifecycle of a package.
type Status string

const (
	StatusGenerando  Status = "generando"
	StatusListo      Status = "listo"
	StatusError      Status = "error"
	StatusCancelado  Status = "cancelado"
	StatusDescargado Status = "descargado"
	StatusInstalado  Status = "instalado"
	StatusVencido    Status = "vencido"
)

var allStatuses = []Status{
	StatusGenerando,
	StatusListo,
	StatusError,
	StatusCancelado,
	StatusDescargado,
	StatusInstalado,
	StatusVencido,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions enumerates every legal status transition. Transitions out of
// generando belong to the owning bundling job; the rest are orchestrator
// operations (download, install confirmation, license expiry, admin override).
var transitions = map[Status][]Status{
	StatusGenerando:  {StatusListo, StatusError, StatusCancelado},
	StatusListo:      {StatusDescargado, StatusVencido},
	StatusDescargado: {StatusInstalado, StatusVencido},
	StatusInstalado:  {StatusVencido},
	StatusVencido:    {StatusListo},
	StatusError:      {},
	StatusCancelado:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether from -> to is a legal lifecycle transition.
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsJobOwned reports whether a transition belongs exclusively to the bundling
// job. Orchestrator UpdateStatus rejects these even when legal.
func IsJobOwned(from Status) bool {
	return from == StatusGenerando
}

// IsTerminalForJob reports whether a status ends the bundling job. Only
// generando keeps a job alive; every later lifecycle stage is past it.
func IsTerminalForJob(status Status) bool {
	return status != StatusGenerando
}

// HasArchive reports whether a status implies a verified archive on disk.
// The archive checksum is recorded if and only if the status is one of these.
func (s Status) HasArchive() bool {
	switch s {
	case StatusListo, StatusDescargado, StatusInstalado:
		return true
	default:
		return false
	}
}

// ManifestEntry describes one content file inside a package archive.
type ManifestEntry struct {
	ContentID      int64               `json:"content_id"`
	Type           catalog.ContentType `json:"type"`
	RelativePath   string              `json:"relative_path"`
	SizeBytes      int64               `json:"size_bytes"`
	ChecksumSHA256 string              `json:"checksum_sha256,omitempty"`
}

// AdvertisingRefs assigns advertising assets to playback slots.
type AdvertisingRefs struct {
	PrerollVideoID int64   `json:"preroll_video_id,omitempty"`
	MidrollVideoID int64   `json:"midroll_video_id,omitempty"`
	BannerIDs      []int64 `json:"banner_ids,omitempty"`
}

// Branding carries the client organization's portal appearance settings.
type Branding struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	WelcomeMessage string `json:"welcome_message,omitempty"`
	UseCompanyLogo bool   `json:"use_company_logo"`
}

// WifiConfig is the provisioning data baked into a package.
type WifiConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Hidden   bool   `json:"hidden"`
}

// Package represents one generation attempt and its result.
type Package struct {
	ID                    string
	CompanyID             int64
	Name                  string
	Version               string
	Status                Status
	Manifest              []ManifestEntry
	Wifi                  WifiConfig
	Advertising           AdvertisingRefs
	Branding              Branding
	ArchivePath           string
	ArchiveSizeBytes      int64
	ArchiveChecksumSHA256 string
	InstallationKey       string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	LicenseExpiresAt      *time.Time
	DownloadCount         int
	Notes                 string

	ProgressPercent int
	FilesProcessed  int
	TotalFiles      int
	ProgressMessage string
	LastHeartbeat   *time.Time
	CancelRequested bool
}

// ProgressRecord is the pollable progress view of an in-flight package.
type ProgressRecord struct {
	PackageID      string
	Percent        int
	FilesProcessed int
	TotalFiles     int
	Message        string
	UpdatedAt      time.Time
}

// Progress folds the package's progress columns into a ProgressRecord.
func (p *Package) Progress() ProgressRecord {
	return ProgressRecord{
		PackageID:      p.ID,
		Percent:        p.ProgressPercent,
		FilesProcessed: p.FilesProcessed,
		TotalFiles:     p.TotalFiles,
		Message:        p.ProgressMessage,
		UpdatedAt:      p.UpdatedAt,
	}
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalJSON(data string, v any) error {
	if strings.TrimSpace(data) == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
