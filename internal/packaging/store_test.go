package packaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"playmi/internal/packaging"
	"playmi/internal/testsupport"
)

func newPackage(companyID int64) *packaging.Package {
	expires := time.Now().UTC().AddDate(1, 0, 0)
	return &packaging.Package{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      "Flota Norte",
		Version:   "2.1",
		Manifest: []packaging.ManifestEntry{
			{ContentID: 1, Type: "movie", RelativePath: "movies/intro.mp4", SizeBytes: 2048},
			{ContentID: 2, Type: "music", RelativePath: "music/tema.mp3", SizeBytes: 512},
		},
		Wifi: packaging.WifiConfig{SSID: "BusNet", Password: "segura123", Hidden: true},
		Advertising: packaging.AdvertisingRefs{
			PrerollVideoID: 7,
			BannerIDs:      []int64{3, 4},
		},
		Branding: packaging.Branding{
			PrimaryColor:   "#102030",
			WelcomeMessage: "Bienvenido a bordo",
			UseCompanyLogo: true,
		},
		InstallationKey:  uuid.NewString(),
		LicenseExpiresAt: &expires,
		Notes:            "pilot fleet",
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("package not found after create")
	}
	if got.Status != packaging.StatusGenerando {
		t.Errorf("new package status = %s, want generando", got.Status)
	}
	if got.Name != pkg.Name || got.Version != pkg.Version || got.Notes != pkg.Notes {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if got.Wifi != pkg.Wifi {
		t.Errorf("wifi config mismatch: got %+v want %+v", got.Wifi, pkg.Wifi)
	}
	if len(got.Manifest) != 2 || got.Manifest[0].RelativePath != "movies/intro.mp4" {
		t.Errorf("manifest mismatch: %+v", got.Manifest)
	}
	if got.Advertising.PrerollVideoID != 7 || len(got.Advertising.BannerIDs) != 2 {
		t.Errorf("advertising refs mismatch: %+v", got.Advertising)
	}
	if !got.Branding.UseCompanyLogo || got.Branding.WelcomeMessage != "Bienvenido a bordo" {
		t.Errorf("branding mismatch: %+v", got.Branding)
	}
	if got.LicenseExpiresAt == nil || !got.LicenseExpiresAt.Equal(*pkg.LicenseExpiresAt) {
		t.Errorf("license expiry mismatch: %v", got.LicenseExpiresAt)
	}
	if got.InstallationKey != pkg.InstallationKey {
		t.Errorf("installation key mismatch: %q", got.InstallationKey)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)

	got, err := store.GetByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown package, got %+v", got)
	}
}

func TestUpdateClearsChecksumWithoutArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pkg.Status = packaging.StatusListo
	pkg.ArchivePath = cfg.Paths.ArchiveDir + "/" + pkg.ID + ".zip"
	pkg.ArchiveSizeBytes = 4096
	pkg.ArchiveChecksumSHA256 = "aa" + uuid.NewString()
	if err := store.Update(ctx, pkg); err != nil {
		t.Fatalf("Update to listo failed: %v", err)
	}
	got, err := store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ArchiveChecksumSHA256 == "" {
		t.Fatal("listo package should retain its checksum")
	}

	pkg.Status = packaging.StatusVencido
	if err := store.Update(ctx, pkg); err != nil {
		t.Fatalf("Update to vencido failed: %v", err)
	}
	got, err = store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ArchiveChecksumSHA256 != "" {
		t.Errorf("vencido package must not carry a checksum, got %q", got.ArchiveChecksumSHA256)
	}
	if got.ArchivePath == "" || got.ArchiveSizeBytes != 4096 {
		t.Errorf("vencido package should keep its archive path and size: %+v", got)
	}
}

func TestMarkDownloaded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Not downloadable while still generating.
	ok, err := store.MarkDownloaded(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("MarkDownloaded failed: %v", err)
	}
	if ok {
		t.Fatal("generando package should not be downloadable")
	}

	pkg.Status = packaging.StatusListo
	pkg.ArchivePath = "/tmp/a.zip"
	pkg.ArchiveSizeBytes = 1
	pkg.ArchiveChecksumSHA256 = "deadbeef"
	if err := store.Update(ctx, pkg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		ok, err = store.MarkDownloaded(ctx, pkg.ID)
		if err != nil {
			t.Fatalf("MarkDownloaded #%d failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("MarkDownloaded #%d returned false", i)
		}
	}

	got, err := store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != packaging.StatusDescargado {
		t.Errorf("status after downloads = %s, want descargado", got.Status)
	}
	if got.DownloadCount != 3 {
		t.Errorf("download count = %d, want 3", got.DownloadCount)
	}
	if got.ArchiveChecksumSHA256 != "deadbeef" {
		t.Errorf("descargado package should keep its checksum, got %q", got.ArchiveChecksumSHA256)
	}
}

func TestRequestCancelOnlyWhileGenerating(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.RequestCancel(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if !ok {
		t.Fatal("generando package should accept a cancel request")
	}
	got, err := store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.CancelRequested {
		t.Fatal("cancel flag not persisted")
	}

	pkg.Status = packaging.StatusCancelado
	if err := store.Update(ctx, pkg); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	ok, err = store.RequestCancel(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	if ok {
		t.Fatal("terminal package should not accept a cancel request")
	}
}

func TestSetProgressAndHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.SetProgress(ctx, pkg.ID, 3, 10, 30, "archived tema.mp3"); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, pkg.ID); err != nil {
		t.Fatalf("UpdateHeartbeat failed: %v", err)
	}

	got, err := store.GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	progress := got.Progress()
	if progress.Percent != 30 || progress.FilesProcessed != 3 || progress.TotalFiles != 10 {
		t.Errorf("progress mismatch: %+v", progress)
	}
	if progress.Message != "archived tema.mp3" {
		t.Errorf("progress message = %q", progress.Message)
	}
	if got.LastHeartbeat == nil {
		t.Fatal("heartbeat not recorded")
	}
	if time.Since(*got.LastHeartbeat) > time.Minute {
		t.Errorf("heartbeat too old: %v", got.LastHeartbeat)
	}
}

func TestListFilterAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	statuses := []packaging.Status{
		packaging.StatusListo,
		packaging.StatusListo,
		packaging.StatusError,
		packaging.StatusGenerando,
	}
	for i, status := range statuses {
		pkg := newPackage(int64(i + 1))
		if err := store.Create(ctx, pkg); err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		if status != packaging.StatusGenerando {
			pkg.Status = status
			if err := store.Update(ctx, pkg); err != nil {
				t.Fatalf("Update #%d failed: %v", i, err)
			}
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List returned %d packages, want 4", len(all))
	}

	ready, err := store.List(ctx, packaging.StatusListo)
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	if len(ready) != 2 {
		t.Fatalf("listo filter returned %d packages, want 2", len(ready))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[packaging.StatusListo] != 2 || stats[packaging.StatusError] != 1 || stats[packaging.StatusGenerando] != 1 {
		t.Errorf("stats mismatch: %v", stats)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenPackageStore(t, cfg)
	ctx := context.Background()

	pkg := newPackage(1)
	if err := store.Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := store.Remove(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("Remove should report the deleted row")
	}
	removed, err = store.Remove(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if removed {
		t.Fatal("second Remove should report nothing deleted")
	}
}
