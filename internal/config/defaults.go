package config

const (
	defaultDataDir           = "~/.local/share/playmi/data"
	defaultArchiveDir        = "~/.local/share/playmi/packages"
	defaultQRDir             = "~/.local/share/playmi/qr"
	defaultLogDir            = "~/.local/share/playmi/logs"
	defaultDeviceGateway     = "192.168.4.1"
	defaultPortalScheme      = "http"
	defaultHeartbeatInterval = 15
	defaultClaimTimeout      = 300
	defaultQRSize            = 512
	defaultQRLevel           = "M"
	defaultLogoPadding       = 8
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			ArchiveDir: defaultArchiveDir,
			QRDir:      defaultQRDir,
			LogDir:     defaultLogDir,
		},
		Network: Network{
			DeviceGateway: defaultDeviceGateway,
			PortalScheme:  defaultPortalScheme,
		},
		Bundling: Bundling{
			HeartbeatInterval: defaultHeartbeatInterval,
			ClaimTimeout:      defaultClaimTimeout,
		},
		QR: QR{
			DefaultSize:  defaultQRSize,
			DefaultLevel: defaultQRLevel,
			LogoPadding:  defaultLogoPadding,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
