package wifiqr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/fault"
	"playmi/internal/logging"
)

const (
	maxSSIDLength     = 32
	minPasswordLength = 8

	busNumberFormat = "BUS-%03d"
)

// Provisioner generates WiFi onboarding codes for companies, persisting the
// record and writing the rendered image under the configured QR directory.
type Provisioner struct {
	catalog catalog.Repository
	store   *Store
	cfg     *config.Config
	logger  *slog.Logger
}

// NewProvisioner builds a Provisioner. A nil logger disables logging.
func NewProvisioner(repo catalog.Repository, store *Store, cfg *config.Config, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provisioner{
		catalog: repo,
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "wifiqr"),
	}
}

// SingleRequest describes one QR code to provision. Zero Size and empty
// Level fall back to the configured defaults. An empty BusNumber produces a
// company-wide code.
type SingleRequest struct {
	CompanyID int64
	BusNumber string
	SSID      string
	Password  string
	Hidden    bool
	Size      int
	Level     string
	WithLogo  bool
}

// BulkRequest describes a batch of per-vehicle QR codes sharing one WiFi
// network. Count sequential bus numbers are reserved atomically before any
// rendering starts.
type BulkRequest struct {
	CompanyID int64
	SSID      string
	Password  string
	Hidden    bool
	Count     int
	Size      int
	Level     string
	WithLogo  bool
}

// BulkItemError records a single failed item of a bulk run.
type BulkItemError struct {
	BusNumber string
	Err       error
}

// BulkReport is the partial-success outcome of GenerateBulk.
type BulkReport struct {
	Generated []*QRCode
	Errors    []BulkItemError
}

// GenerateSingle provisions one QR code: validates the request, builds the
// portal URL and WiFi payload, renders the image, and persists the record.
func (p *Provisioner) GenerateSingle(ctx context.Context, req SingleRequest) (*QRCode, error) {
	size, level, err := p.resolveRendering(req.Size, req.Level, req.WithLogo)
	if err != nil {
		return nil, err
	}
	if err := validateCredentials(req.SSID, req.Password); err != nil {
		return nil, err
	}

	company, err := p.lookupCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	logo, err := p.companyLogo(company, req.WithLogo)
	if err != nil {
		return nil, err
	}

	code, err := p.generateOne(ctx, company, req.BusNumber, req.SSID, req.Password, req.Hidden, size, level, logo)
	if err != nil {
		return nil, err
	}

	p.logger.Info("qr code generated",
		logging.String("qr_id", code.ID),
		logging.Int64(logging.FieldCompanyID, company.ID),
		logging.String("bus_number", code.BusNumber))
	return code, nil
}

// GenerateBulk provisions count sequentially numbered per-vehicle codes. The
// bus-number range is reserved in one atomic step, then each code is
// generated independently; a failed item is reported without aborting the
// rest.
func (p *Provisioner) GenerateBulk(ctx context.Context, req BulkRequest) (*BulkReport, error) {
	if req.Count <= 0 {
		return nil, fault.NewValidation(fault.FieldViolation{Field: "count", Reason: "must be positive"})
	}
	size, level, err := p.resolveRendering(req.Size, req.Level, req.WithLogo)
	if err != nil {
		return nil, err
	}
	if err := validateCredentials(req.SSID, req.Password); err != nil {
		return nil, err
	}

	company, err := p.lookupCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	logo, err := p.companyLogo(company, req.WithLogo)
	if err != nil {
		return nil, err
	}

	start, err := p.store.ReserveBusNumbers(ctx, company.ID, req.Count)
	if err != nil {
		return nil, err
	}

	report := &BulkReport{}
	for i := 0; i < req.Count; i++ {
		busNumber := fmt.Sprintf(busNumberFormat, start+int64(i))
		code, err := p.generateOne(ctx, company, busNumber, req.SSID, req.Password, req.Hidden, size, level, logo)
		if err != nil {
			p.logger.Warn("bulk qr item failed",
				logging.Int64(logging.FieldCompanyID, company.ID),
				logging.String("bus_number", busNumber),
				logging.Error(err))
			report.Errors = append(report.Errors, BulkItemError{BusNumber: busNumber, Err: err})
			continue
		}
		report.Generated = append(report.Generated, code)
	}

	p.logger.Info("bulk qr generation finished",
		logging.Int64(logging.FieldCompanyID, company.ID),
		logging.Int("generated", len(report.Generated)),
		logging.Int("failed", len(report.Errors)))
	return report, nil
}

func (p *Provisioner) generateOne(
	ctx context.Context,
	company *catalog.Company,
	busNumber, ssid, password string,
	hidden bool,
	size int,
	level Level,
	logo image.Image,
) (*QRCode, error) {
	portalURL := PortalURL(p.cfg.Network.PortalScheme, p.cfg.Network.DeviceGateway, company.ID, busNumber)
	content := PayloadWithPortal(ssid, password, hidden, portalURL)

	pngBytes, err := RenderPNG(content, size, level, logo, p.cfg.QR.LogoPadding)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	imagePath := filepath.Join(p.cfg.Paths.QRDir, imageFilename(company.ID, busNumber, id))
	if err := os.WriteFile(imagePath, pngBytes, 0o644); err != nil {
		return nil, fault.NewIO("write qr image", imagePath, err)
	}

	code := &QRCode{
		ID:        id,
		CompanyID: company.ID,
		BusNumber: busNumber,
		SSID:      ssid,
		Password:  password,
		PortalURL: portalURL,
		ImagePath: imagePath,
		Size:      size,
		Level:     level,
		Status:    StatusActivo,
	}
	if err := p.store.Insert(ctx, code); err != nil {
		_ = os.Remove(imagePath)
		return nil, err
	}
	return code, nil
}

func (p *Provisioner) resolveRendering(size int, levelValue string, withLogo bool) (int, Level, error) {
	if size == 0 {
		size = p.cfg.QR.DefaultSize
	}
	if levelValue == "" {
		levelValue = p.cfg.QR.DefaultLevel
	}

	var b fault.ValidationBuilder
	if size <= 0 {
		b.Add("size", "must be positive")
	}
	level, ok := ParseLevel(levelValue)
	if !ok {
		b.Addf("error_correction", "unknown level %q", levelValue)
	} else if withLogo && !level.SupportsLogo() {
		b.Addf("error_correction", "level %s cannot absorb a logo overlay; use Q or H", level)
	}
	if err := b.Err(); err != nil {
		return 0, "", err
	}
	return size, level, nil
}

func validateCredentials(ssid, password string) error {
	var b fault.ValidationBuilder
	if ssid == "" {
		b.Add("wifi_ssid", "must not be empty")
	} else if len(ssid) > maxSSIDLength {
		b.Addf("wifi_ssid", "exceeds %d bytes", maxSSIDLength)
	}
	if len(password) < minPasswordLength {
		b.Addf("wifi_password", "must be at least %d characters", minPasswordLength)
	}
	return b.Err()
}

func (p *Provisioner) lookupCompany(ctx context.Context, id int64) (*catalog.Company, error) {
	company, err := p.catalog.Company(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("look up company: %w", err)
	}
	if company == nil {
		return nil, fault.NewNotFound("company", strconv.FormatInt(id, 10))
	}
	return company, nil
}

func (p *Provisioner) companyLogo(company *catalog.Company, withLogo bool) (image.Image, error) {
	if !withLogo {
		return nil, nil
	}
	if company.LogoPath == "" {
		return nil, fault.NewValidation(fault.FieldViolation{
			Field:  "logo",
			Reason: fmt.Sprintf("company %d has no logo on file", company.ID),
		})
	}
	return LoadLogo(company.LogoPath)
}

func imageFilename(companyID int64, busNumber, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	if busNumber == "" {
		return fmt.Sprintf("qr_%d_%s.png", companyID, short)
	}
	return fmt.Sprintf("qr_%d_%s_%s.png", companyID, busNumber, short)
}
