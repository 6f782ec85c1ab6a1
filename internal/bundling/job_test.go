package bundling_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"playmi/internal/bundling"
	"playmi/internal/catalog"
	"playmi/internal/logging"
	"playmi/internal/packaging"
	"playmi/internal/testsupport"
)

type env struct {
	packages *packaging.Store
	catalog  *catalog.Store
	job      *bundling.Job
	company  *catalog.Company
	contents []*catalog.Content
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	packages := testsupport.MustOpenPackageStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, cfg)
	company := testsupport.SeedCompany(t, cat, "Transportes del Sur")
	contents := []*catalog.Content{
		testsupport.SeedContent(t, cat, cfg, catalog.TypeMovie, "estreno", 4096),
		testsupport.SeedContent(t, cat, cfg, catalog.TypeMusic, "tema", 1024),
	}
	return &env{
		packages: packages,
		catalog:  cat,
		job:      bundling.NewJob(packages, cat, cfg, nil),
		company:  company,
		contents: contents,
	}
}

func (e *env) newPackage(t *testing.T, ids ...int64) *packaging.Package {
	t.Helper()

	manifest := make([]packaging.ManifestEntry, 0, len(ids))
	for _, id := range ids {
		manifest = append(manifest, packaging.ManifestEntry{ContentID: id})
	}
	pkg := &packaging.Package{
		ID:              uuid.NewString(),
		CompanyID:       e.company.ID,
		Name:            "Flota Norte",
		Version:         "1.0",
		Manifest:        manifest,
		Wifi:            packaging.WifiConfig{SSID: "BusNet", Password: "segura123"},
		InstallationKey: uuid.NewString(),
	}
	ctx := context.Background()
	if err := e.packages.ClaimCompany(ctx, pkg.CompanyID, pkg.ID, time.Now().UTC().Add(-5*time.Second)); err != nil {
		t.Fatalf("claim company: %v", err)
	}
	if err := e.packages.Create(ctx, pkg); err != nil {
		t.Fatalf("create package: %v", err)
	}
	return pkg
}

func TestRunProducesReadyPackage(t *testing.T) {
	e := newEnv(t)
	pkg := e.newPackage(t, e.contents[0].ID, e.contents[1].ID)

	e.job.Run(context.Background(), pkg)

	got, err := e.packages.GetByID(context.Background(), pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != packaging.StatusListo {
		t.Fatalf("status = %s (message %q), want listo", got.Status, got.ProgressMessage)
	}
	if got.ArchivePath == "" || got.ArchiveSizeBytes == 0 {
		t.Errorf("archive metadata missing: %+v", got)
	}
	if len(got.ArchiveChecksumSHA256) != 64 {
		t.Errorf("checksum = %q, want 64 hex chars", got.ArchiveChecksumSHA256)
	}
	if got.ProgressPercent != 100 || got.ProgressMessage != "package ready" {
		t.Errorf("final progress mismatch: %d%% %q", got.ProgressPercent, got.ProgressMessage)
	}
	if len(got.Manifest) != 2 {
		t.Errorf("manifest entries = %d, want 2", len(got.Manifest))
	}
	for _, entry := range got.Manifest {
		if entry.ChecksumSHA256 == "" {
			t.Errorf("manifest entry %d has no checksum", entry.ContentID)
		}
	}
	if _, err := os.Stat(got.ArchivePath); err != nil {
		t.Errorf("archive file missing: %v", err)
	}

	// The claim is released, so the company can start another generation.
	if err := e.packages.ClaimCompany(context.Background(), pkg.CompanyID, "next", time.Now().UTC().Add(-5*time.Second)); err != nil {
		t.Errorf("claim after run should succeed, got %v", err)
	}
}

func TestRunRecordsMissingContent(t *testing.T) {
	e := newEnv(t)
	pkg := e.newPackage(t, e.contents[0].ID, 9999)

	e.job.Run(context.Background(), pkg)

	got, err := e.packages.GetByID(context.Background(), pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != packaging.StatusError {
		t.Fatalf("status = %s, want error", got.Status)
	}
	if got.ProgressMessage == "" {
		t.Error("failure should record a progress message")
	}
	if got.ArchivePath != "" || got.ArchiveChecksumSHA256 != "" {
		t.Errorf("failed package must not carry archive metadata: %+v", got)
	}

	if err := e.packages.ClaimCompany(context.Background(), pkg.CompanyID, "next", time.Now().UTC().Add(-5*time.Second)); err != nil {
		t.Errorf("claim after failed run should succeed, got %v", err)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	e := newEnv(t)
	pkg := e.newPackage(t, e.contents[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.job.Run(ctx, pkg)

	got, err := e.packages.GetByID(context.Background(), pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != packaging.StatusCancelado {
		t.Fatalf("status = %s, want cancelado", got.Status)
	}
	if got.ProgressMessage != "generation cancelled" {
		t.Errorf("progress message = %q", got.ProgressMessage)
	}
}

func TestMonitorCancelsOnRequest(t *testing.T) {
	e := newEnv(t)
	pkg := e.newPackage(t, e.contents[0].ID)

	jobCtx, cancelJob := context.WithCancel(context.Background())
	defer cancelJob()
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()

	var wg sync.WaitGroup
	wg.Add(1)
	monitor := bundling.NewMonitor(e.packages, logging.NewNop(), 10*time.Millisecond)
	go monitor.StartLoop(monitorCtx, &wg, pkg, cancelJob)

	if ok, err := e.packages.RequestCancel(context.Background(), pkg.ID); err != nil || !ok {
		t.Fatalf("RequestCancel = %v, %v", ok, err)
	}

	select {
	case <-jobCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not cancel the job after the request")
	}
	wg.Wait()

	got, err := e.packages.GetByID(context.Background(), pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastHeartbeat == nil {
		t.Error("monitor should have recorded a heartbeat")
	}
}
