package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playmi/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Network.DeviceGateway != "192.168.4.1" {
		t.Fatalf("unexpected default gateway: %s", cfg.Network.DeviceGateway)
	}
	if cfg.QR.DefaultLevel != "M" {
		t.Fatalf("unexpected default QR level: %s", cfg.QR.DefaultLevel)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for a missing file")
	}
	if path == "" {
		t.Fatal("expected the resolved path to be reported")
	}
	if cfg.Bundling.HeartbeatInterval != 15 {
		t.Fatalf("expected default heartbeat interval, got %d", cfg.Bundling.HeartbeatInterval)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playmi.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
archive_dir = "` + filepath.Join(dir, "archives") + `"
qr_dir = "` + filepath.Join(dir, "qr") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[network]
device_gateway = "10.0.0.1"

[qr]
default_level = "Q"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Network.DeviceGateway != "10.0.0.1" {
		t.Fatalf("gateway override not applied: %s", cfg.Network.DeviceGateway)
	}
	if cfg.QR.DefaultLevel != "Q" {
		t.Fatalf("QR level override not applied: %s", cfg.QR.DefaultLevel)
	}
	// Untouched sections keep their defaults.
	if cfg.Bundling.ClaimTimeout != 300 {
		t.Fatalf("expected default claim timeout, got %d", cfg.Bundling.ClaimTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }, "data_dir"},
		{"zero heartbeat", func(c *config.Config) { c.Bundling.HeartbeatInterval = 0 }, "heartbeat_interval"},
		{"claim timeout below heartbeat", func(c *config.Config) { c.Bundling.ClaimTimeout = 5; c.Bundling.HeartbeatInterval = 10 }, "claim_timeout"},
		{"bad qr level", func(c *config.Config) { c.QR.DefaultLevel = "X" }, "default_level"},
		{"tiny qr size", func(c *config.Config) { c.QR.DefaultSize = 10 }, "default_size"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"[paths]", "[network]", "[bundling]", "[qr]", "[logging]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("sample config missing section %s", section)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := config.Default()
	if cfg.HeartbeatInterval().Seconds() != 15 {
		t.Fatalf("unexpected heartbeat interval: %s", cfg.HeartbeatInterval())
	}
	if cfg.ClaimTimeout().Seconds() != 300 {
		t.Fatalf("unexpected claim timeout: %s", cfg.ClaimTimeout())
	}
}
