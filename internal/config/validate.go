package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBundling(); err != nil {
		return err
	}
	if err := c.validateQR(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ArchiveDir == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if c.Paths.QRDir == "" {
		return errors.New("paths.qr_dir must be set")
	}
	return nil
}

func (c *Config) validateBundling() error {
	if c.Bundling.HeartbeatInterval <= 0 {
		return errors.New("bundling.heartbeat_interval must be positive")
	}
	if c.Bundling.ClaimTimeout <= c.Bundling.HeartbeatInterval {
		return errors.New("bundling.claim_timeout must exceed bundling.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateQR() error {
	switch c.QR.DefaultLevel {
	case "L", "M", "Q", "H":
	default:
		return fmt.Errorf("qr.default_level must be one of L, M, Q, H (got %q)", c.QR.DefaultLevel)
	}
	if c.QR.DefaultSize < 64 {
		return errors.New("qr.default_size must be at least 64 pixels")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
