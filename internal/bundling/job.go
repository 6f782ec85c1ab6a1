package bundling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"playmi/internal/archive"
	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/fault"
	"playmi/internal/logging"
	"playmi/internal/packaging"
)

// Job executes the bundling pipeline for one package.
type Job struct {
	store   *packaging.Store
	catalog catalog.Repository
	builder *archive.Builder
	cfg     *config.Config
	logger  *slog.Logger
}

// NewJob builds a Job. A nil logger disables logging.
func NewJob(store *packaging.Store, repo catalog.Repository, cfg *config.Config, logger *slog.Logger) *Job {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Job{
		store:   store,
		catalog: repo,
		builder: archive.NewBuilder(),
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "bundling"),
	}
}

// Run drives pkg from generando to a terminal status. It is meant to run on
// its own goroutine: errors are recorded on the package row, never returned.
// The company claim is released once the package reaches a terminal status.
func (j *Job) Run(ctx context.Context, pkg *packaging.Package) {
	logger := j.logger.With(
		logging.String(logging.FieldPackageID, pkg.ID),
		logging.Int64(logging.FieldCompanyID, pkg.CompanyID),
	)

	jobCtx, cancelJob := context.WithCancel(ctx)
	defer cancelJob()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	monitor := NewMonitor(j.store, j.logger, j.cfg.HeartbeatInterval())
	go monitor.StartLoop(monitorCtx, &wg, pkg, cancelJob)

	err := j.execute(jobCtx, pkg, logger)

	stopMonitor()
	wg.Wait()

	if err != nil {
		j.recordFailure(pkg, err, logger)
	}

	// Terminal either way; free the company for the next generation.
	if err := j.store.ReleaseClaim(context.Background(), pkg.CompanyID, pkg.ID); err != nil {
		logger.Warn("claim release failed", logging.Error(err))
	}
}

func (j *Job) execute(ctx context.Context, pkg *packaging.Package, logger *slog.Logger) error {
	logger.Info("bundling started", logging.String(logging.FieldStep, "resolve"))

	contents, missing, err := j.catalog.ResolveContents(ctx, contentIDs(pkg))
	if err != nil {
		return fmt.Errorf("resolve contents: %w", err)
	}
	if len(missing) > 0 {
		return fault.NewNotFound("content", fmt.Sprintf("%v", missing))
	}

	// Record the resolved content listing up front so a later failure still
	// leaves the manifest available for diagnostics.
	pkg.Manifest = preliminaryManifest(contents)
	if err := j.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("record resolved manifest: %w", err)
	}

	company, err := j.catalog.Company(ctx, pkg.CompanyID)
	if err != nil {
		return fmt.Errorf("look up company: %w", err)
	}
	if company == nil {
		return fault.NewNotFound("company", fmt.Sprintf("%d", pkg.CompanyID))
	}

	req := archive.Request{
		PackageID:       pkg.ID,
		Name:            pkg.Name,
		Version:         pkg.Version,
		Contents:        contents,
		Branding:        pkg.Branding,
		Wifi:            pkg.Wifi,
		Advertising:     pkg.Advertising,
		CompanyLogoPath: company.LogoPath,
		FinalPath:       filepath.Join(j.cfg.Paths.ArchiveDir, pkg.ID+".zip"),
	}

	total := j.builder.TotalFiles(req)
	if err := j.store.SetProgress(ctx, pkg.ID, 0, total, 0, "copying files"); err != nil {
		return fmt.Errorf("initialize progress: %w", err)
	}

	logger.Info("archiving contents",
		logging.String(logging.FieldStep, "archive"),
		logging.Int("total_files", total))

	result, err := j.builder.Build(ctx, req, func(processed, totalFiles int, name string) {
		percent := processed * 100 / totalFiles
		message := fmt.Sprintf("archived %s", name)
		if perr := j.store.SetProgress(context.Background(), pkg.ID, processed, totalFiles, percent, message); perr != nil {
			logger.Warn("progress update failed", logging.Error(perr))
		}
	})
	if err != nil {
		return err
	}

	pkg.Status = packaging.StatusListo
	pkg.Manifest = result.Manifest
	pkg.ArchivePath = result.Path
	pkg.ArchiveSizeBytes = result.SizeBytes
	pkg.ArchiveChecksumSHA256 = result.ChecksumSHA256
	pkg.ProgressPercent = 100
	pkg.FilesProcessed = total
	pkg.TotalFiles = total
	pkg.ProgressMessage = "package ready"
	if err := j.store.Update(ctx, pkg); err != nil {
		return fmt.Errorf("finalize package: %w", err)
	}

	logger.Info("bundling finished",
		logging.String("archive", result.Path),
		logging.Int64("size_bytes", result.SizeBytes))
	return nil
}

// recordFailure stamps the terminal failure status. Cancellation is reported
// as cancelado, anything else as error with a human-readable message. The
// archive metadata stays unset; the builder already removed any partial file.
func (j *Job) recordFailure(pkg *packaging.Package, cause error, logger *slog.Logger) {
	ctx := context.Background()

	canceled := errors.Is(cause, context.Canceled)
	if canceled {
		pkg.Status = packaging.StatusCancelado
		pkg.ProgressMessage = "generation cancelled"
	} else {
		pkg.Status = packaging.StatusError
		pkg.ProgressMessage = cause.Error()
	}
	pkg.ArchivePath = ""
	pkg.ArchiveSizeBytes = 0
	pkg.ArchiveChecksumSHA256 = ""

	if err := j.store.Update(ctx, pkg); err != nil {
		logger.Error("failed to record terminal status", logging.Error(err))
		return
	}

	if canceled {
		logger.Info("bundling cancelled")
	} else {
		logger.Error("bundling failed", logging.Error(cause))
	}
}

func contentIDs(pkg *packaging.Package) []int64 {
	ids := make([]int64, 0, len(pkg.Manifest))
	for _, entry := range pkg.Manifest {
		ids = append(ids, entry.ContentID)
	}
	return ids
}

// preliminaryManifest maps resolved contents to manifest entries before the
// archive is written. Checksums come later, from the bytes actually streamed.
func preliminaryManifest(contents []*catalog.Content) []packaging.ManifestEntry {
	entries := make([]packaging.ManifestEntry, 0, len(contents))
	for _, content := range contents {
		entries = append(entries, packaging.ManifestEntry{
			ContentID:    content.ID,
			Type:         content.Type,
			RelativePath: path.Join(content.Type.GroupDir(), filepath.Base(content.Path)),
			SizeBytes:    content.SizeBytes,
		})
	}
	return entries
}
