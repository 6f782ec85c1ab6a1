package wifiqr_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playmi/internal/catalog"
	"playmi/internal/config"
	"playmi/internal/fault"
	"playmi/internal/logging"
	"playmi/internal/testsupport"
	"playmi/internal/wifiqr"
)

func newProvisioner(t *testing.T) (*wifiqr.Provisioner, *catalog.Store, *testEnv) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	catalogStore := testsupport.MustOpenCatalog(t, cfg)
	qrStore := testsupport.MustOpenQRStore(t, cfg)
	provisioner := wifiqr.NewProvisioner(catalogStore, qrStore, cfg, logging.NewNop())
	return provisioner, catalogStore, &testEnv{cfg: cfg, qrStore: qrStore}
}

type testEnv struct {
	cfg     *config.Config
	qrStore *wifiqr.Store
}

func TestGenerateSingleWritesImageAndRecord(t *testing.T) {
	provisioner, catalogStore, env := newProvisioner(t)
	company := testsupport.SeedCompany(t, catalogStore, "Transportes Sur")

	ctx := context.Background()
	code, err := provisioner.GenerateSingle(ctx, wifiqr.SingleRequest{
		CompanyID: company.ID,
		SSID:      "PLAYMI-SUR",
		Password:  "12345678",
	})
	if err != nil {
		t.Fatalf("GenerateSingle failed: %v", err)
	}

	if code.BusNumber != "" {
		t.Fatalf("expected company-wide code, got bus %q", code.BusNumber)
	}
	if !strings.Contains(code.PortalURL, fmt.Sprintf("company=%d", company.ID)) {
		t.Fatalf("portal url missing company id: %s", code.PortalURL)
	}
	if code.Size != env.cfg.QR.DefaultSize {
		t.Fatalf("expected configured default size, got %d", code.Size)
	}

	data, err := os.ReadFile(code.ImagePath)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("image is not a valid PNG: %v", err)
	}

	stored, err := env.qrStore.GetByID(ctx, code.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored == nil || stored.SSID != "PLAYMI-SUR" {
		t.Fatalf("record not persisted: %#v", stored)
	}
}

func TestGenerateSingleUnknownCompany(t *testing.T) {
	provisioner, _, _ := newProvisioner(t)

	_, err := provisioner.GenerateSingle(context.Background(), wifiqr.SingleRequest{
		CompanyID: 999,
		SSID:      "Net",
		Password:  "12345678",
	})
	if !fault.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestGenerateSingleValidation(t *testing.T) {
	provisioner, catalogStore, _ := newProvisioner(t)
	company := testsupport.SeedCompany(t, catalogStore, "Validación SA")

	_, err := provisioner.GenerateSingle(context.Background(), wifiqr.SingleRequest{
		CompanyID: company.ID,
		SSID:      "",
		Password:  "short",
	})
	if !fault.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "wifi_ssid") || !strings.Contains(msg, "wifi_password") {
		t.Fatalf("all violations should be reported together: %s", msg)
	}
}

func TestGenerateSingleLogoRequiresHighCorrection(t *testing.T) {
	provisioner, catalogStore, _ := newProvisioner(t)
	company := testsupport.SeedCompany(t, catalogStore, "Sin Logo SA")

	// The level check fires before the logo lookup, so a company without a
	// logo still gets the correction-level violation first.
	_, err := provisioner.GenerateSingle(context.Background(), wifiqr.SingleRequest{
		CompanyID: company.ID,
		SSID:      "Net",
		Password:  "12345678",
		Level:     "M",
		WithLogo:  true,
	})
	if !fault.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerateSingleWithCompanyLogo(t *testing.T) {
	provisioner, catalogStore, env := newProvisioner(t)

	logoPath := filepath.Join(t.TempDir(), "logo.png")
	writeLogoPNG(t, logoPath)
	company, err := catalogStore.InsertCompany(context.Background(), &catalog.Company{
		Name:     "Con Logo SA",
		LogoPath: logoPath,
	})
	if err != nil {
		t.Fatalf("InsertCompany failed: %v", err)
	}

	code, err := provisioner.GenerateSingle(context.Background(), wifiqr.SingleRequest{
		CompanyID: company.ID,
		SSID:      "Net",
		Password:  "12345678",
		Level:     "Q",
		WithLogo:  true,
	})
	if err != nil {
		t.Fatalf("GenerateSingle with logo failed: %v", err)
	}
	if code.Level != wifiqr.LevelQ {
		t.Fatalf("expected level Q, got %s", code.Level)
	}
	if _, err := os.Stat(code.ImagePath); err != nil {
		t.Fatalf("image not written: %v", err)
	}
	_ = env
}

func TestGenerateBulkSequentialNumbering(t *testing.T) {
	provisioner, catalogStore, env := newProvisioner(t)
	company := testsupport.SeedCompany(t, catalogStore, "Flota Norte")

	ctx := context.Background()
	report, err := provisioner.GenerateBulk(ctx, wifiqr.BulkRequest{
		CompanyID: company.ID,
		Count:     3,
		SSID:      "PLAYMI-NORTE",
		Password:  "12345678",
	})
	if err != nil {
		t.Fatalf("GenerateBulk failed: %v", err)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected item errors: %v", report.Errors)
	}
	if len(report.Generated) != 3 {
		t.Fatalf("expected 3 codes, got %d", len(report.Generated))
	}

	for i, code := range report.Generated {
		want := fmt.Sprintf("BUS-%03d", i+1)
		if code.BusNumber != want {
			t.Fatalf("code %d: expected bus %s, got %s", i, want, code.BusNumber)
		}
		if !strings.Contains(code.PortalURL, "bus="+want) {
			t.Fatalf("portal url missing bus number: %s", code.PortalURL)
		}
	}

	// A second batch continues where the first left off.
	report, err = provisioner.GenerateBulk(ctx, wifiqr.BulkRequest{
		CompanyID: company.ID,
		Count:     2,
		SSID:      "PLAYMI-NORTE",
		Password:  "12345678",
	})
	if err != nil {
		t.Fatalf("second GenerateBulk failed: %v", err)
	}
	if report.Generated[0].BusNumber != "BUS-004" {
		t.Fatalf("expected continuation at BUS-004, got %s", report.Generated[0].BusNumber)
	}

	codes, err := env.qrStore.ListByCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("ListByCompany failed: %v", err)
	}
	if len(codes) != 5 {
		t.Fatalf("expected 5 persisted codes, got %d", len(codes))
	}
}

func TestGenerateBulkRejectsNonPositiveCount(t *testing.T) {
	provisioner, catalogStore, _ := newProvisioner(t)
	company := testsupport.SeedCompany(t, catalogStore, "Cero SA")

	_, err := provisioner.GenerateBulk(context.Background(), wifiqr.BulkRequest{
		CompanyID: company.ID,
		Count:     0,
		SSID:      "Net",
		Password:  "12345678",
	})
	if !fault.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func writeLogoPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 90, B: 160, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
