package archive

import (
	"time"

	"playmi/internal/catalog"
	"playmi/internal/packaging"
)

// ManifestName is the filename of the package descriptor at the archive root.
const ManifestName = "manifest.json"

// BrandingDir is the archive directory holding company branding assets.
const BrandingDir = "branding"

// PortalFlags enables portal sections on the deployed device based on what the
// package actually carries.
type PortalFlags struct {
	Movies      bool `json:"movies"`
	Music       bool `json:"music"`
	Games       bool `json:"games"`
	Advertising bool `json:"advertising"`
}

// Manifest is the root descriptor written into every archive.
type Manifest struct {
	PackageID   string                    `json:"package_id"`
	Name        string                    `json:"name"`
	Version     string                    `json:"version,omitempty"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Contents    []packaging.ManifestEntry `json:"contents"`
	Branding    packaging.Branding        `json:"branding"`
	Wifi        packaging.WifiConfig      `json:"wifi"`
	Advertising packaging.AdvertisingRefs `json:"advertising"`
	Portal      PortalFlags               `json:"portal"`
}

func portalFlags(contents []*catalog.Content, ads packaging.AdvertisingRefs) PortalFlags {
	flags := PortalFlags{
		Advertising: ads.PrerollVideoID != 0 || ads.MidrollVideoID != 0 || len(ads.BannerIDs) > 0,
	}
	for _, content := range contents {
		switch content.Type {
		case catalog.TypeMovie:
			flags.Movies = true
		case catalog.TypeMusic:
			flags.Music = true
		case catalog.TypeGame:
			flags.Games = true
		}
	}
	return flags
}
