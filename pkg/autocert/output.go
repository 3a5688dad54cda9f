package autocert

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	SummaryFileName     = "summary.txt"
	SummaryTimeLayout   = "2006-01-02 15:04:05"
	bundleTimeLayout    = "20060102_150405"
	summarySheetName    = "Summary"
	successSheetName    = "Certificates"
	errorSheetName      = "Errors"
	ContentTypePDF      = "application/pdf"
	ContentTypePNG      = "image/png"
	ContentTypeText     = "text/plain; charset=utf-8"
	ContentTypeZip      = "application/zip"
	ContentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type GeneratedCertificate struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	// Base name without extension
	FileName string `json:"fileName"`
	PDF      []byte `json:"-"`
	PNG      []byte `json:"-"`
}

func (gc GeneratedCertificate) PDFName() string { return gc.FileName + ".pdf" }
func (gc GeneratedCertificate) PNGName() string { return gc.FileName + ".png" }

type CertificateGenerationError struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Message     string `json:"message"`
}

// GenerationResult is built once by the Generator and never mutated afterwards.
type GenerationResult struct {
	ID           string                       `json:"id"`
	Certificates []GeneratedCertificate       `json:"certificates"`
	Errors       []CertificateGenerationError `json:"errors"`
	Total        int                          `json:"total"`
	SuccessCount int                          `json:"successCount"`
	ErrorCount   int                          `json:"errorCount"`
	Success      bool                         `json:"success"`
	StartedAt    time.Time                    `json:"startedAt"`
	FinishedAt   time.Time                    `json:"finishedAt"`
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]`)

func sanitizeFileName(s string) string {
	return unsafeFileChars.ReplaceAllString(s, "_")
}

// CertificateFileName is certificate_<enrollment id or user id>_<name>, sanitized.
func CertificateFileName(s Student) string {
	id := s.EnrollmentID
	if id == "" {
		id = s.UserID
	}
	return fmt.Sprintf("certificate_%s_%s", sanitizeFileName(id), sanitizeFileName(s.FullName))
}

// dedupeFileNames keeps the first occurrence of a base name and suffixes later ones with the
// student id, then a counter, so no two certificates share a file.
func dedupeFileNames(certs []GeneratedCertificate) {
	used := make(map[string]bool, len(certs))
	for i := range certs {
		name := certs[i].FileName
		if used[name] {
			name = certs[i].FileName + "_" + sanitizeFileName(certs[i].StudentID)
			for n := 2; used[name]; n++ {
				name = fmt.Sprintf("%s_%s_%d", certs[i].FileName, sanitizeFileName(certs[i].StudentID), n)
			}
		}
		used[name] = true
		certs[i].FileName = name
	}
}

func BundleFileName(at time.Time) string {
	return fmt.Sprintf("certificates_%s.zip", at.Format(bundleTimeLayout))
}

// Summary renders the plain text report of a run.
func Summary(result *GenerationResult) string {
	var sb strings.Builder

	sb.WriteString("Certificate Generation Summary\n")
	fmt.Fprintf(&sb, "Generated at: %s\n", result.FinishedAt.Format(SummaryTimeLayout))
	fmt.Fprintf(&sb, "Total students: %d\n", result.Total)
	fmt.Fprintf(&sb, "Successful: %d\n", result.SuccessCount)
	fmt.Fprintf(&sb, "Failed: %d\n", result.ErrorCount)

	if len(result.Certificates) > 0 {
		sb.WriteString("\nGenerated certificates:\n")
		for _, c := range result.Certificates {
			fmt.Fprintf(&sb, "- %s: %s\n", c.StudentName, c.PDFName())
		}
	}

	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&sb, "- %s: %s\n", e.StudentName, e.Message)
		}
	}

	return sb.String()
}

// SummaryWorkbook renders the run report as an xlsx workbook with one sheet per section.
func SummaryWorkbook(result *GenerationResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#f2f2f2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{
			name:   summarySheetName,
			header: []any{"Generated at", "Total", "Successful", "Failed"},
			rows: [][]any{{
				result.FinishedAt.Format(SummaryTimeLayout), result.Total, result.SuccessCount, result.ErrorCount,
			}},
		},
		{
			name:   successSheetName,
			header: []any{"Student ID", "Student Name", "PDF", "PNG"},
			rows:   certificateRows(result.Certificates),
		},
		{
			name:   errorSheetName,
			header: []any{"Student ID", "Student Name", "Message"},
			rows:   errorRows(result.Errors),
		},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, err
		}

		if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(s.header), 1)
		if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
			return nil, err
		}

		for r, row := range s.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func certificateRows(certs []GeneratedCertificate) [][]any {
	rows := make([][]any, len(certs))
	for i, c := range certs {
		rows[i] = []any{c.StudentID, c.StudentName, c.PDFName(), c.PNGName()}
	}
	return rows
}

func errorRows(errs []CertificateGenerationError) [][]any {
	rows := make([][]any, len(errs))
	for i, e := range errs {
		rows[i] = []any{e.StudentID, e.StudentName, e.Message}
	}
	return rows
}

// Sink receives materialized files. Implementations live in internal/file_storage.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

type Materializer struct {
	fileDelay time.Duration
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func NewMaterializer(cfg *Config) *Materializer {
	cfg = cfg.normalize()
	return &Materializer{fileDelay: cfg.FileDelay, logger: cfg.Logger, now: time.Now}
}

// DeliverIndividually writes every PDF and PNG one after another, then the summary.
// It returns the names written so far, also on error.
func (m *Materializer) DeliverIndividually(ctx context.Context, result *GenerationResult, sink Sink) ([]string, error) {
	written := make([]string, 0, 2*len(result.Certificates)+1)

	put := func(name, contentType string, data []byte) error {
		if len(written) > 0 {
			sleepContext(ctx, m.fileDelay)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.Put(ctx, name, contentType, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, name)
		return nil
	}

	for _, c := range result.Certificates {
		if err := put(c.PDFName(), ContentTypePDF, c.PDF); err != nil {
			return written, err
		}
		if err := put(c.PNGName(), ContentTypePNG, c.PNG); err != nil {
			return written, err
		}
	}

	if err := put(SummaryFileName, ContentTypeText, []byte(Summary(result))); err != nil {
		return written, err
	}

	m.logger.Infof("Delivered %d files for run %s", len(written), result.ID)
	return written, nil
}

// DeliverBundle writes a single zip archive holding every certificate and the summary.
func (m *Materializer) DeliverBundle(ctx context.Context, result *GenerationResult, sink Sink) (string, error) {
	data, err := Bundle(result)
	if err != nil {
		return "", err
	}

	name := BundleFileName(m.now())
	if err := sink.Put(ctx, name, ContentTypeZip, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	m.logger.Infof("Delivered bundle %s (%d bytes) for run %s", name, len(data), result.ID)
	return name, nil
}
