// Package config loads, normalizes, and validates PLAYMI configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the CLI and the
// bundling pipeline need: data/archive/QR directories, the device-gateway
// address baked into portal URLs, bundling heartbeat timing, and QR rendering
// defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
