package autocert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

var ErrNoTemplate = errors.New("template image is not loaded")

// Rasterizer draws a template and its positioned text fields onto a fresh canvas per call.
type Rasterizer struct {
	fonts  *FontLoader
	logger *zap.SugaredLogger
}

func NewRasterizer(fonts *FontLoader, logger *zap.SugaredLogger) *Rasterizer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Rasterizer{fonts: fonts, logger: logger}
}

// Render returns a new canvas of the template size. values is keyed by field mapping id.
func (r *Rasterizer) Render(ctx context.Context, tpl *Template, mappings []FieldMapping, values map[string]string) (*image.RGBA, error) {
	if tpl == nil || tpl.Image == nil {
		return nil, ErrNoTemplate
	}
	if tpl.Width <= 0 || tpl.Height <= 0 {
		return nil, fmt.Errorf("invalid template size %dx%d", tpl.Width, tpl.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tpl.Width, tpl.Height))
	drawBackground(dst, tpl.Image)

	for _, fm := range mappings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.drawField(dst, fm, values[fm.ID]); err != nil {
			return nil, fmt.Errorf("field %s (%s): %w", fm.ID, fm.FieldName, err)
		}
	}

	return dst, nil
}

func drawBackground(dst *image.RGBA, src image.Image) {
	if src.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

func (r *Rasterizer) drawField(dst *image.RGBA, fm FieldMapping, text string) error {
	style := fm.Style
	padded := toImageRect(fm.Rect.Padded(style.Padding))

	bg, err := ParseColor(style.BackgroundColor)
	if err != nil {
		return err
	}
	if !isTransparent(bg) {
		draw.Draw(dst, padded, image.NewUniform(bg), image.Point{}, draw.Over)
	}

	if style.BorderColor != "" {
		border, err := ParseColor(style.BorderColor)
		if err != nil {
			return err
		}
		if !isTransparent(border) {
			strokeRect(dst, padded, border)
		}
	}

	if text == "" {
		return nil
	}

	fg, err := ParseColor(style.Color)
	if err != nil {
		return err
	}

	face, err := r.fonts.Face(style.FontFamily, style.FontWeight, style.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	NewTextRenderer(face, style, fg).Draw(dst, text, fm.Rect)
	return nil
}

// strokeRect draws a 1px outline just inside rect.
func strokeRect(dst *image.RGBA, rect image.Rectangle, c color.Color) {
	if rect.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1),
		image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y),
		image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

func toImageRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}
