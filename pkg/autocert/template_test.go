package autocert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
)

type stubRenderer struct {
	img   image.Image
	err   error
	scale float64
}

func (s *stubRenderer) RenderFirstPage(_ context.Context, _ []byte, scale float64) (image.Image, error) {
	s.scale = scale
	return s.img, s.err
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTemplateLoaderImage(t *testing.T) {
	data := encodePNG(t, 320, 240)
	tpl, err := NewTemplateLoader(&stubRenderer{}, nil).Load(context.Background(), "Certificate.PNG", int64(len(data)), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if tpl.Width != 320 || tpl.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", tpl.Width, tpl.Height)
	}
	if tpl.SourceFormat != SourceFormatImage {
		t.Errorf("expected image source, got %s", tpl.SourceFormat)
	}
	if tpl.ID == "" {
		t.Error("expected template id")
	}
}

func TestTemplateLoaderPDF(t *testing.T) {
	stub := &stubRenderer{img: image.NewRGBA(image.Rect(0, 0, 1190, 842))}
	tpl, err := NewTemplateLoader(stub, nil).Load(context.Background(), "cert.pdf", 10, strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if stub.scale != PDFRenderScale {
		t.Errorf("expected scale %v, got %v", PDFRenderScale, stub.scale)
	}
	if tpl.SourceFormat != SourceFormatPDF || tpl.Width != 1190 || tpl.Height != 842 {
		t.Errorf("unexpected template %+v", tpl)
	}
}

func TestTemplateLoaderErrors(t *testing.T) {
	loader := NewTemplateLoader(&stubRenderer{err: ErrPDFNoRaster}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		size     int64
		body     string
		want     error
	}{
		{"too large", "a.png", MaxTemplateSize + 1, "", ErrTemplateTooLarge},
		{"unsupported", "a.gif", 3, "GIF", ErrUnsupportedTemplate},
		{"pdf without raster", "a.pdf", 3, "PDF", ErrPDFNoRaster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(ctx, tt.fileName, tt.size, strings.NewReader(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := loader.Load(ctx, "broken.png", 4, strings.NewReader("nope")); err == nil {
		t.Error("expected decode error")
	}
}

func TestScaleOnto(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	dst := scaleOnto(src, 40, 20)
	if dst.Bounds().Dx() != 40 || dst.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", dst.Bounds())
	}
	if got := dst.RGBAAt(20, 10); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("expected blue centre, got %v", got)
	}
}

func TestEncodePDF(t *testing.T) {
	data, err := EncodePDF(image.NewRGBA(image.Rect(0, 0, 200, 100)))
	if err != nil {
		t.Fatalf("EncodePDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("expected a pdf header, got %q", data[:min(8, len(data))])
	}
}

func TestPxToMM(t *testing.T) {
	if got := pxToMM(72); math.Abs(got-25.4) > 1e-9 {
		t.Errorf("expected 25.4, got %v", got)
	}
}
