// Package archive assembles deployable package artifacts.
//
// A Builder streams the selected media files into a zip container grouped by
// content type, writes the manifest describing contents, branding, WiFi
// provisioning, and advertising slots, and finalizes through a
// temp-file-then-atomic-rename so a reader can never observe a partially
// written archive at the final path. The finished artifact's SHA-256 is
// computed from the bytes on disk before the rename; a digest that cannot be
// reproduced fails the build rather than surfacing an unverifiable archive.
package archive
