package wifiqr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // logo decoding
	"image/png"
	"os"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"playmi/internal/fault"
)

// logoFraction is the share of the QR edge the overlaid logo occupies.
const logoFraction = 5

// minLogoPadding is the smallest opaque border preserved around a logo so the
// covered modules stay recoverable.
const minLogoPadding = 5

// RenderPNG rasterizes content as a QR image of size×size pixels. When logo
// is non-nil it is scaled to roughly a fifth of the QR width, backed by an
// opaque white pad, and composited in the center. Logos deliberately consume
// error-correction budget, so they require level Q or H.
func RenderPNG(content string, size int, level Level, logo image.Image, padding int) ([]byte, error) {
	if size <= 0 {
		return nil, fault.NewValidation(fault.FieldViolation{Field: "size", Reason: "must be positive"})
	}
	if _, ok := ParseLevel(string(level)); !ok {
		return nil, fault.NewValidation(fault.FieldViolation{Field: "error_correction", Reason: fmt.Sprintf("unknown level %q", string(level))})
	}
	if logo != nil && !level.SupportsLogo() {
		return nil, fault.NewValidation(fault.FieldViolation{
			Field:  "error_correction",
			Reason: fmt.Sprintf("level %s cannot absorb a logo overlay; use Q or H", level),
		})
	}

	code, err := qrcode.New(content, level.recovery())
	if err != nil {
		return nil, fmt.Errorf("build qr matrix: %w", err)
	}

	img := code.Image(size)
	if logo != nil {
		img = compositeLogo(img, logo, padding)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}

func compositeLogo(qrImage, logo image.Image, padding int) image.Image {
	if padding < minLogoPadding {
		padding = minLogoPadding
	}

	bounds := qrImage.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, qrImage, bounds.Min, draw.Src)

	edge := bounds.Dx() / logoFraction
	scaled := scaleToFit(logo, edge)
	logoBounds := scaled.Bounds()

	centerX := bounds.Min.X + bounds.Dx()/2
	centerY := bounds.Min.Y + bounds.Dy()/2
	logoRect := image.Rect(
		centerX-logoBounds.Dx()/2,
		centerY-logoBounds.Dy()/2,
		centerX+(logoBounds.Dx()+1)/2,
		centerY+(logoBounds.Dy()+1)/2,
	)

	// Opaque pad behind the logo keeps a readable quiet zone.
	padRect := logoRect.Inset(-padding)
	draw.Draw(canvas, padRect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, logoRect, scaled, logoBounds.Min, draw.Over)

	return canvas
}

// scaleToFit resizes src so its longer edge equals edge, preserving aspect.
func scaleToFit(src image.Image, edge int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 || edge <= 0 {
		return src
	}

	targetW, targetH := edge, edge
	if width > height {
		targetH = height * edge / width
	} else if height > width {
		targetW = width * edge / height
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// LoadLogo decodes a logo image from disk for compositing.
func LoadLogo(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fault.NewIO("open logo", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", path, err)
	}
	return img, nil
}
