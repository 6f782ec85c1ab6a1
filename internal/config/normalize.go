package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNetwork()
	c.normalizeQR()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		c.Paths.ArchiveDir = defaultArchiveDir
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.QRDir) == "" {
		c.Paths.QRDir = defaultQRDir
	}
	if c.Paths.QRDir, err = expandPath(c.Paths.QRDir); err != nil {
		return fmt.Errorf("paths.qr_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNetwork() {
	c.Network.DeviceGateway = strings.TrimSpace(c.Network.DeviceGateway)
	if c.Network.DeviceGateway == "" {
		c.Network.DeviceGateway = defaultDeviceGateway
	}
	c.Network.PortalScheme = strings.ToLower(strings.TrimSpace(c.Network.PortalScheme))
	if c.Network.PortalScheme == "" {
		c.Network.PortalScheme = defaultPortalScheme
	}
}

func (c *Config) normalizeQR() {
	if c.QR.DefaultSize <= 0 {
		c.QR.DefaultSize = defaultQRSize
	}
	c.QR.DefaultLevel = strings.ToUpper(strings.TrimSpace(c.QR.DefaultLevel))
	if c.QR.DefaultLevel == "" {
		c.QR.DefaultLevel = defaultQRLevel
	}
	if c.QR.LogoPadding <= 0 {
		c.QR.LogoPadding = defaultLogoPadding
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
