package autocert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	MaxTemplateSize = 50 << 20
	// PDF pages are rendered at twice their point size.
	PDFRenderScale = 2
)

var (
	ErrTemplateTooLarge      = errors.New("template file exceeds 50MB")
	ErrUnsupportedTemplate   = errors.New("unsupported template format, expected pdf, png, jpg or webp")
	ErrPDFNoRaster           = errors.New("pdf template has no raster layer on its first page")
	ErrInvalidTemplateBounds = errors.New("template has no drawable area")
)

// DocumentRenderer turns the first page of a document into a raster at the given scale.
type DocumentRenderer interface {
	RenderFirstPage(ctx context.Context, data []byte, scale float64) (image.Image, error)
}

type TemplateLoader struct {
	renderer DocumentRenderer
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewTemplateLoader uses the pdfcpu backed renderer when renderer is nil.
func NewTemplateLoader(renderer DocumentRenderer, logger *zap.SugaredLogger) *TemplateLoader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if renderer == nil {
		renderer = NewPDFRenderer(logger)
	}
	return &TemplateLoader{renderer: renderer, logger: logger, now: time.Now}
}

// Load reads an uploaded template and normalizes it to a raster.
func (tl *TemplateLoader) Load(ctx context.Context, name string, size int64, r io.Reader) (*Template, error) {
	if size > MaxTemplateSize {
		return nil, ErrTemplateTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxTemplateSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	if len(data) > MaxTemplateSize {
		return nil, ErrTemplateTooLarge
	}

	var (
		img    image.Image
		format SourceFormat
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		format = SourceFormatPDF
		img, err = tl.renderer.RenderFirstPage(ctx, data, PDFRenderScale)
	case ".png", ".jpg", ".jpeg", ".webp":
		format = SourceFormatImage
		img, _, err = image.Decode(bytes.NewReader(data))
	default:
		return nil, ErrUnsupportedTemplate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, ErrInvalidTemplateBounds
	}

	tl.logger.Debugf("Loaded %s template %s (%dx%d)", format, name, b.Dx(), b.Dy())

	return &Template{
		ID:           uuid.NewString(),
		Width:        b.Dx(),
		Height:       b.Dy(),
		SourceFormat: format,
		CreatedAt:    tl.now(),
		Image:        img,
	}, nil
}

// scaleOnto draws src stretched over a new w x h canvas.
func scaleOnto(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
