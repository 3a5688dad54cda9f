package autocert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"go.uber.org/zap"
)

// PDFRenderer rasterizes the first page of a PDF from its largest embedded image.
// Vector-only pages are not supported and yield ErrPDFNoRaster.
type PDFRenderer struct {
	conf   *model.Configuration
	logger *zap.SugaredLogger
}

func NewPDFRenderer(logger *zap.SugaredLogger) *PDFRenderer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &PDFRenderer{conf: model.NewDefaultConfiguration(), logger: logger}
}

func (pr *PDFRenderer) RenderFirstPage(ctx context.Context, data []byte, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims, err := api.PageDims(bytes.NewReader(data), pr.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf pages: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	var (
		largest     image.Image
		largestArea int
	)

	digest := func(img model.Image, _ bool, _ int) error {
		decoded, _, err := image.Decode(img)
		if err != nil {
			// Some filters (jpx, ccitt) have no registered Go decoder.
			pr.logger.Debugf("Skipping pdf image %s (%s): %v", img.Name, img.FileType, err)
			return nil
		}
		if area := decoded.Bounds().Dx() * decoded.Bounds().Dy(); area > largestArea {
			largest, largestArea = decoded, area
		}
		return nil
	}

	if err := api.ExtractImages(bytes.NewReader(data), []string{"1"}, digest, pr.conf); err != nil {
		return nil, fmt.Errorf("failed to extract pdf images: %w", err)
	}
	if largest == nil {
		return nil, ErrPDFNoRaster
	}

	w := int(math.Round(dims[0].Width * scale))
	h := int(math.Round(dims[0].Height * scale))
	pr.logger.Debugf("Rendering pdf page %.0fx%.0f pt to %dx%d px", dims[0].Width, dims[0].Height, w, h)

	return scaleOnto(largest, w, h), nil
}

// pxToMM converts template pixels to millimetres at 72 DPI.
func pxToMM(px int) float64 {
	return float64(px) * 25.4 / DPI
}

// EncodePDF wraps img into a single page PDF of the same size at 72 DPI.
func EncodePDF(img image.Image) ([]byte, error) {
	b := img.Bounds()
	c := canvas.New(pxToMM(b.Dx()), pxToMM(b.Dy()))
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, img, canvas.DPI(DPI))

	var buf bytes.Buffer
	if err := renderers.PDF()(&buf, c); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
