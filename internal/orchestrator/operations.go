package orchestrator

import (
	"context"
	"fmt"
	"os"

	"playmi/internal/fault"
	"playmi/internal/fileutil"
	"playmi/internal/logging"
	"playmi/internal/packaging"
)

// DownloadInfo points a caller at a finished archive.
type DownloadInfo struct {
	ArchivePath       string
	SuggestedFilename string
}

// Download hands out the archive of a finished package. The first download
// transitions listo to descargado; every download increments the counter.
// Packages in any other state are rejected with an InvalidStateError.
func (o *Orchestrator) Download(ctx context.Context, id string) (*DownloadInfo, error) {
	pkg, err := o.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	switch pkg.Status {
	case packaging.StatusListo, packaging.StatusDescargado:
	default:
		return nil, fault.NewInvalidState("download", string(pkg.Status))
	}

	ok, err := o.store.MarkDownloaded(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent status change.
		current, err := o.mustGet(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fault.NewInvalidState("download", string(current.Status))
	}

	o.logger.Info("package downloaded",
		logging.String(logging.FieldPackageID, pkg.ID),
		logging.Int64(logging.FieldCompanyID, pkg.CompanyID))

	return &DownloadInfo{
		ArchivePath:       pkg.ArchivePath,
		SuggestedFilename: SuggestedFilename(pkg.Name, pkg.Version),
	}, nil
}

// Delete removes a package record and its archive file. In-flight and
// actively deployed packages (generando, instalado) are protected.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	pkg, err := o.mustGet(ctx, id)
	if err != nil {
		return err
	}

	switch pkg.Status {
	case packaging.StatusGenerando, packaging.StatusInstalado:
		return fault.NewInvalidState("delete", string(pkg.Status))
	}

	if pkg.ArchivePath != "" {
		if err := os.Remove(pkg.ArchivePath); err != nil && !os.IsNotExist(err) {
			return fault.NewIO("remove archive", pkg.ArchivePath, err)
		}
	}

	if _, err := o.store.Remove(ctx, id); err != nil {
		return err
	}

	o.logger.Info("package deleted",
		logging.String(logging.FieldPackageID, pkg.ID),
		logging.String("status", string(pkg.Status)))
	return nil
}

// UpdateStatus applies a lifecycle transition requested from outside the
// pipeline: install confirmations, license-expiry sweeps, and the admin
// override reviving an expired package. Transitions owned by the bundling
// job and anything outside the lifecycle table are rejected.
func (o *Orchestrator) UpdateStatus(ctx context.Context, id string, target packaging.Status) error {
	if _, ok := packaging.ParseStatus(string(target)); !ok {
		return fault.NewValidation(fault.FieldViolation{
			Field:  "status",
			Reason: fmt.Sprintf("unknown status %q", string(target)),
		})
	}

	pkg, err := o.mustGet(ctx, id)
	if err != nil {
		return err
	}

	if packaging.IsJobOwned(pkg.Status) || !packaging.CanTransition(pkg.Status, target) {
		return fault.NewInvalidTransition("update status", string(pkg.Status), string(target))
	}

	// Reviving an expired package re-verifies the archive before the status
	// claims a usable artifact again.
	if pkg.Status == packaging.StatusVencido && target == packaging.StatusListo {
		checksum, err := o.verifyArchive(pkg)
		if err != nil {
			return err
		}
		pkg.ArchiveChecksumSHA256 = checksum
	}

	from := pkg.Status
	pkg.Status = target
	if err := o.store.Update(ctx, pkg); err != nil {
		return err
	}

	o.logger.Info("package status updated",
		logging.String(logging.FieldPackageID, pkg.ID),
		logging.String("from", string(from)),
		logging.String("to", string(target)))
	return nil
}

// verifyArchive checks the archive bytes still match what was recorded and
// returns the recomputed digest.
func (o *Orchestrator) verifyArchive(pkg *packaging.Package) (string, error) {
	if pkg.ArchivePath == "" {
		return "", fault.NewIntegrity("", "no archive recorded for package %s", pkg.ID)
	}

	info, err := os.Stat(pkg.ArchivePath)
	if err != nil {
		return "", fault.NewIntegrity(pkg.ArchivePath, "archive missing or unreadable")
	}
	if info.Size() != pkg.ArchiveSizeBytes {
		return "", fault.NewIntegrity(pkg.ArchivePath, "size changed: recorded %d bytes, found %d", pkg.ArchiveSizeBytes, info.Size())
	}

	checksum, err := fileutil.SHA256File(pkg.ArchivePath)
	if err != nil {
		return "", fault.NewIO("checksum archive", pkg.ArchivePath, err)
	}
	return checksum, nil
}

// Cancel flags an in-flight generation for cancellation. The job observes
// the flag between file copies and winds down through the cancelado path.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	pkg, err := o.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if pkg.Status != packaging.StatusGenerando {
		return fault.NewInvalidState("cancel", string(pkg.Status))
	}

	ok, err := o.store.RequestCancel(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		current, err := o.mustGet(ctx, id)
		if err != nil {
			return err
		}
		return fault.NewInvalidState("cancel", string(current.Status))
	}

	o.logger.Info("package cancellation requested",
		logging.String(logging.FieldPackageID, pkg.ID))
	return nil
}

// List returns packages, optionally filtered by status.
func (o *Orchestrator) List(ctx context.Context, statuses ...packaging.Status) ([]*packaging.Package, error) {
	return o.store.List(ctx, statuses...)
}

// Stats returns the package count per status.
func (o *Orchestrator) Stats(ctx context.Context) (map[packaging.Status]int, error) {
	return o.store.Stats(ctx)
}
