package autocert

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// Margin between the QR code and the bottom-right corner of the certificate.
const qrCodeMargin = 16

// For a 2x rendered A4 template, size 120 should be enough
func GenerateQRCode(link string, size int) (image.Image, error) {
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return q.Image(size), nil
}

// EmbedQRCode draws a QR code for link at the bottom-right corner of dst.
func EmbedQRCode(dst *image.RGBA, link string, size int) error {
	qr, err := GenerateQRCode(link, size)
	if err != nil {
		return err
	}

	b := dst.Bounds()
	offset := image.Pt(b.Max.X-qr.Bounds().Dx()-qrCodeMargin, b.Max.Y-qr.Bounds().Dy()-qrCodeMargin)
	if offset.X < b.Min.X || offset.Y < b.Min.Y {
		return fmt.Errorf("certificate %dx%d is too small for a %dpx QR code", b.Dx(), b.Dy(), size)
	}

	draw.Draw(dst, qr.Bounds().Add(offset), qr, qr.Bounds().Min, draw.Over)
	return nil
}
