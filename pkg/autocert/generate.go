package autocert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoFieldMappings     = errors.New("at least one field mapping is required")
	ErrGenerationCancelled = errors.New("generation cancelled")
)

// CertificateRenderer produces the files of a single certificate.
type CertificateRenderer interface {
	RenderCertificate(ctx context.Context, tpl *Template, mappings []FieldMapping, student Student, row CSVRow) (*GeneratedCertificate, error)
}

// CertificateBuilder resolves, rasterizes and encodes one certificate as PNG and PDF.
type CertificateBuilder struct {
	resolver   *Resolver
	rasterizer *Rasterizer
	cfg        *Config
}

func NewCertificateBuilder(fonts *FontLoader, cfg *Config) *CertificateBuilder {
	cfg = cfg.normalize()
	return &CertificateBuilder{
		resolver:   NewResolver(cfg.InstituteName),
		rasterizer: NewRasterizer(fonts, cfg.Logger),
		cfg:        cfg,
	}
}

func (cb *CertificateBuilder) RenderCertificate(ctx context.Context, tpl *Template, mappings []FieldMapping, student Student, row CSVRow) (*GeneratedCertificate, error) {
	values := cb.resolver.Resolve(student, mappings, row)

	img, err := cb.rasterizer.Render(ctx, tpl, mappings, values)
	if err != nil {
		return nil, err
	}

	if cb.cfg.EmbedQRCode && cb.cfg.QRURLPattern != "" {
		if err := EmbedQRCode(img, fmt.Sprintf(cb.cfg.QRURLPattern, student.UserID), cb.cfg.QRCodeSize); err != nil {
			return nil, err
		}
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	pdf, err := EncodePDF(img)
	if err != nil {
		return nil, err
	}

	return &GeneratedCertificate{
		StudentID:   student.UserID,
		StudentName: student.FullName,
		FileName:    CertificateFileName(student),
		PNG:         pngBuf.Bytes(),
		PDF:         pdf,
	}, nil
}

type GenerateInput struct {
	Template *Template
	Mappings []FieldMapping
	Students []Student
	// Optional; students without a row resolve from their record only.
	Rows []CSVRow
}

// ProgressFunc receives the number of finished students, successful or not.
type ProgressFunc func(done, total int)

// Generator renders certificates for a roster in fixed size concurrent batches.
type Generator struct {
	renderer   CertificateRenderer
	batchSize  int
	batchDelay time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewGenerator(renderer CertificateRenderer, cfg *Config) *Generator {
	cfg = cfg.normalize()
	return &Generator{
		renderer:   renderer,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Generate renders every student. Per student failures are collected in the result.
// When ctx is cancelled the remaining students are recorded as cancelled and the
// partial result is returned along with ctx.Err().
func (g *Generator) Generate(ctx context.Context, in GenerateInput, progress ProgressFunc) (*GenerationResult, error) {
	if in.Template == nil {
		return nil, ErrNoTemplate
	}
	if len(in.Mappings) == 0 {
		return nil, ErrNoFieldMappings
	}
	if progress == nil {
		progress = func(int, int) {}
	}

	total := len(in.Students)
	acc := &accumulator{total: total, progress: progress}
	startedAt := g.now()

	g.logger.Infof("Generating %d certificates in batches of %d", total, g.batchSize)

	for start := 0; start < total; start += g.batchSize {
		end := min(start+g.batchSize, total)

		if start > 0 {
			sleepContext(ctx, g.batchDelay)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				g.renderStudent(ctx, in, i, acc)
			}(i)
		}
		wg.Wait()
	}

	result := acc.build(startedAt, g.now())
	g.logger.Infof("Generated %d/%d certificates, %d failed", result.SuccessCount, result.Total, result.ErrorCount)

	if acc.cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

func (g *Generator) renderStudent(ctx context.Context, in GenerateInput, index int, acc *accumulator) {
	student := in.Students[index]

	cert, err := g.safeRender(ctx, in, student)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = ErrGenerationCancelled
		}
		if !errors.Is(err, ErrGenerationCancelled) {
			g.logger.Warnf("Failed to generate certificate for %s: %v", student.UserID, err)
		}
		acc.fail(index, student, err)
		return
	}

	acc.succeed(index, cert)
}

func (g *Generator) safeRender(ctx context.Context, in GenerateInput, student Student) (cert *GeneratedCertificate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cert, err = nil, fmt.Errorf("unexpected error while rendering: %v", r)
		}
	}()

	if ctx.Err() != nil {
		return nil, ErrGenerationCancelled
	}

	row, _ := FindCSVRow(student, in.Rows)
	cert, err = g.renderer.RenderCertificate(ctx, in.Template, in.Mappings, student, row)
	if err == nil && cert == nil {
		err = errors.New("renderer returned no certificate")
	}
	return cert, err
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// accumulator serializes result collection and progress reporting across batch goroutines.
type accumulator struct {
	mu        sync.Mutex
	total     int
	done      int
	cancelled bool
	progress  ProgressFunc
	certs     []indexed[GeneratedCertificate]
	errs      []indexed[CertificateGenerationError]
}

type indexed[T any] struct {
	index int
	value T
}

func (a *accumulator) succeed(index int, cert *GeneratedCertificate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.certs = append(a.certs, indexed[GeneratedCertificate]{index, *cert})
	a.step()
}

func (a *accumulator) fail(index int, student Student, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if errors.Is(err, ErrGenerationCancelled) {
		a.cancelled = true
	}
	a.errs = append(a.errs, indexed[CertificateGenerationError]{index, CertificateGenerationError{
		StudentID:   student.UserID,
		StudentName: student.FullName,
		Message:     err.Error(),
	}})
	a.step()
}

// step must be called with mu held.
func (a *accumulator) step() {
	a.done++
	a.progress(a.done, a.total)
}

func (a *accumulator) build(startedAt, finishedAt time.Time) *GenerationResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	certs := inRosterOrder(a.certs)
	dedupeFileNames(certs)

	return &GenerationResult{
		ID:           uuid.NewString(),
		Certificates: certs,
		Errors:       inRosterOrder(a.errs),
		Total:        a.total,
		SuccessCount: len(a.certs),
		ErrorCount:   len(a.errs),
		Success:      len(a.errs) == 0,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	}
}

func inRosterOrder[T any](items []indexed[T]) []T {
	slices.SortFunc(items, func(a, b indexed[T]) int { return a.index - b.index })
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out
}
