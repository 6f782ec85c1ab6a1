package testsupport

import (
	"path/filepath"
	"testing"

	"playmi/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archives")
	cfgVal.Paths.QRDir = filepath.Join(base, "qr")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Bundling.HeartbeatInterval = 1
	cfgVal.Bundling.ClaimTimeout = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithClaimTimeout overrides the company-claim expiry in seconds.
func WithClaimTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Bundling.ClaimTimeout = seconds
	}
}

// WithGateway overrides the device gateway address used in portal URLs.
func WithGateway(gateway string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Network.DeviceGateway = gateway
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
