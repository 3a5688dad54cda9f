package autocert

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Line spacing as a multiple of the font size.
const LineHeightFactor = 1.2

// WrapText greedily packs words into lines no wider than maxWidth.
// A single word wider than maxWidth is kept on its own line rather than broken.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := make([]string, 0, 1)
	current := words[0]

	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}

	return append(lines, current)
}

// TextRenderer draws wrapped text for one field. It owns a face and must not be shared across goroutines.
type TextRenderer struct {
	face  font.Face
	color color.Color
	style FieldStyle
}

func NewTextRenderer(face font.Face, style FieldStyle, c color.Color) *TextRenderer {
	return &TextRenderer{face: face, style: style, color: c}
}

func (tr *TextRenderer) measure(s string) float64 {
	return fixedToFloat(font.MeasureString(tr.face, s))
}

// Lines returns the text wrapped to the content width of rect.
func (tr *TextRenderer) Lines(text string, rect Rect) []string {
	return WrapText(text, rect.Width-2*tr.style.Padding, tr.measure)
}

// anchorX mirrors canvas textAlign: the anchor is the left edge, centre or right edge of the rect.
func (tr *TextRenderer) anchorX(rect Rect, lineWidth float64) float64 {
	switch tr.style.Align {
	case TextAlignCenter:
		return rect.X + rect.Width/2 - lineWidth/2
	case TextAlignRight:
		return rect.X + rect.Width - lineWidth
	default:
		return rect.X
	}
}

// Draw renders text into dst with a top baseline, one line every fontSize*LineHeightFactor px.
// Painting is clipped to the padded rect and lines starting below its bottom edge are dropped.
func (tr *TextRenderer) Draw(dst *image.RGBA, text string, rect Rect) {
	ascent := fixedToFloat(tr.face.Metrics().Ascent)
	lineHeight := tr.style.FontSize * LineHeightFactor
	bottom := rect.Y + rect.Height + tr.style.Padding

	clip, ok := dst.SubImage(toImageRect(rect.Padded(tr.style.Padding))).(*image.RGBA)
	if !ok || clip.Bounds().Empty() {
		return
	}

	d := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(tr.color),
		Face: tr.face,
	}

	for i, line := range tr.Lines(text, rect) {
		top := rect.Y + float64(i)*lineHeight + tr.style.Padding
		if top >= bottom {
			break
		}
		d.Dot = fixed.Point26_6{
			X: floatToFixed(tr.anchorX(rect, tr.measure(line))),
			Y: floatToFixed(top + ascent),
		}
		d.DrawString(line)
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
