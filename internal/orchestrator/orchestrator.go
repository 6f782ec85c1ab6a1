package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"playmi/internal/bundling"
	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/fault"
	"playmi/internal/logging"
	"playmi/internal/packaging"
)

const (
	maxSSIDLength     = 32
	minPasswordLength = 8
)

// Orchestrator coordinates package generation and lifecycle operations.
type Orchestrator struct {
	store   *packaging.Store
	catalog catalog.Repository
	job     *bundling.Job
	cfg     *config.Config
	logger  *slog.Logger

	// jobCtx outlives individual requests so bundling keeps running after
	// the triggering caller returns.
	jobCtx context.Context
}

// New builds an Orchestrator. Bundling jobs run on jobCtx, which should span
// the process lifetime rather than a single request.
func New(jobCtx context.Context, store *packaging.Store, repo catalog.Repository, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if jobCtx == nil {
		jobCtx = context.Background()
	}
	return &Orchestrator{
		store:   store,
		catalog: repo,
		job:     bundling.NewJob(store, repo, cfg, logger),
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "orchestrator"),
		jobCtx:  jobCtx,
	}
}

// GenerateRequest describes one package generation.
type GenerateRequest struct {
	CompanyID        int64
	Name             string
	Version          string
	SSID             string
	Password         string
	Hidden           bool
	ContentIDs       []int64
	Advertising      packaging.AdvertisingRefs
	Branding         packaging.Branding
	LicenseExpiresAt *time.Time
	Notes            string
}

// Generate validates req in full, creates the package, and starts its
// bundling job. It returns the new package id without waiting for bundling.
// Validation reports every violated field at once; nothing is created when
// validation fails. A company with a job already in flight yields a
// ConcurrencyError.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents, err := o.validateGenerate(ctx, req)
	if err != nil {
		return "", err
	}

	pkg := &packaging.Package{
		ID:               uuid.New().String(),
		CompanyID:        req.CompanyID,
		Name:             req.Name,
		Version:          req.Version,
		Status:           packaging.StatusGenerando,
		Manifest:         requestedManifest(contents),
		Wifi:             packaging.WifiConfig{SSID: req.SSID, Password: req.Password, Hidden: req.Hidden},
		Advertising:      req.Advertising,
		Branding:         req.Branding,
		InstallationKey:  uuid.New().String(),
		LicenseExpiresAt: req.LicenseExpiresAt,
		Notes:            req.Notes,
		ProgressMessage:  "queued",
	}

	staleCutoff := time.Now().UTC().Add(-o.cfg.ClaimTimeout())
	if err := o.store.ClaimCompany(ctx, req.CompanyID, pkg.ID, staleCutoff); err != nil {
		return "", err
	}

	if err := o.store.Create(ctx, pkg); err != nil {
		_ = o.store.ReleaseClaim(ctx, req.CompanyID, pkg.ID)
		return "", fmt.Errorf("create package: %w", err)
	}

	o.logger.Info("package generation started",
		logging.String(logging.FieldPackageID, pkg.ID),
		logging.Int64(logging.FieldCompanyID, req.CompanyID),
		logging.Int("contents", len(contents)))

	go o.job.Run(o.jobCtx, pkg)

	return pkg.ID, nil
}

// validateGenerate collects every violation before touching any state. The
// resolved contents are returned so creation does not resolve twice.
func (o *Orchestrator) validateGenerate(ctx context.Context, req GenerateRequest) ([]*catalog.Content, error) {
	var b fault.ValidationBuilder

	company, err := o.catalog.Company(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("look up company: %w", err)
	}
	if company == nil {
		b.Addf("company_id", "company %d does not exist", req.CompanyID)
	}

	if req.Name == "" {
		b.Add("name", "must not be empty")
	}
	if req.SSID == "" {
		b.Add("wifi_ssid", "must not be empty")
	} else if len(req.SSID) > maxSSIDLength {
		b.Addf("wifi_ssid", "exceeds %d bytes", maxSSIDLength)
	}
	if len(req.Password) < minPasswordLength {
		b.Addf("wifi_password", "must be at least %d characters", minPasswordLength)
	}

	var contents []*catalog.Content
	if len(req.ContentIDs) == 0 {
		b.Add("content_ids", "must not be empty")
	} else {
		resolved, missing, err := o.catalog.ResolveContents(ctx, req.ContentIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve contents: %w", err)
		}
		for _, id := range missing {
			b.Addf("content_ids", "content %d does not exist", id)
		}
		contents = resolved
	}

	if err := b.Err(); err != nil {
		return nil, err
	}
	return contents, nil
}

// Progress returns the live progress of an in-flight package, or the terminal
// status with archive metadata once the job has finished.
func (o *Orchestrator) Progress(ctx context.Context, id string) (*ProgressReport, error) {
	pkg, err := o.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		PackageID: pkg.ID,
		Status:    pkg.Status,
	}
	if pkg.Status == packaging.StatusGenerando {
		report.InFlight = true
		report.Progress = pkg.Progress()
		return report, nil
	}

	report.ArchiveSizeBytes = pkg.ArchiveSizeBytes
	report.ArchiveChecksumSHA256 = pkg.ArchiveChecksumSHA256
	report.Message = pkg.ProgressMessage
	return report, nil
}

// ProgressReport is the polling view of a package. InFlight selects between
// the live progress counters and the terminal status fields.
type ProgressReport struct {
	PackageID string
	Status    packaging.Status
	InFlight  bool

	Progress packaging.ProgressRecord

	ArchiveSizeBytes      int64
	ArchiveChecksumSHA256 string
	Message               string
}

func (o *Orchestrator) mustGet(ctx context.Context, id string) (*packaging.Package, error) {
	pkg, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	if pkg == nil {
		return nil, fault.NewNotFound("package", id)
	}
	return pkg, nil
}

func requestedManifest(contents []*catalog.Content) []packaging.ManifestEntry {
	entries := make([]packaging.ManifestEntry, 0, len(contents))
	for _, content := range contents {
		entries = append(entries, packaging.ManifestEntry{
			ContentID: content.ID,
			Type:      content.Type,
			SizeBytes: content.SizeBytes,
		})
	}
	return entries
}
