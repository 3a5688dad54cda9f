package autocert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"
)

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
	err   error
}

func (m *memorySink) Put(_ context.Context, name, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = data
	m.order = append(m.order, name)
	return nil
}

func sampleResult() *GenerationResult {
	return &GenerationResult{
		ID: "run-1",
		Certificates: []GeneratedCertificate{
			{StudentID: "U1", StudentName: "Ada Lovelace", FileName: "certificate_E1_Ada_Lovelace", PDF: []byte("pdf-1"), PNG: []byte("png-1")},
			{StudentID: "U3", StudentName: "Alan Turing", FileName: "certificate_U3_Alan_Turing", PDF: []byte("pdf-3"), PNG: []byte("png-3")},
		},
		Errors:       []CertificateGenerationError{{StudentID: "U2", StudentName: "Grace Hopper", Message: "render failed"}},
		Total:        3,
		SuccessCount: 2,
		ErrorCount:   1,
		StartedAt:    time.Date(2024, 3, 5, 9, 59, 0, 0, time.UTC),
		FinishedAt:   time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestCertificateFileName(t *testing.T) {
	tests := []struct {
		name     string
		student  Student
		expected string
	}{
		{"enrollment id preferred", Student{UserID: "U1", EnrollmentID: "E1", FullName: "Ada Lovelace"}, "certificate_E1_Ada_Lovelace"},
		{"user id fallback", Student{UserID: "U1", FullName: "Ada"}, "certificate_U1_Ada"},
		{"unsafe characters replaced", Student{UserID: "u/1", FullName: "José O'Neil"}, "certificate_u_1_Jos__O_Neil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CertificateFileName(tt.student); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDedupeFileNames(t *testing.T) {
	certs := []GeneratedCertificate{
		{StudentID: "U1", FileName: "certificate_E1_Ada"},
		{StudentID: "U2", FileName: "certificate_E1_Ada"},
		{StudentID: "U3", FileName: "certificate_E2_Bob"},
		{StudentID: "U2", FileName: "certificate_E1_Ada"},
	}

	dedupeFileNames(certs)

	got := make([]string, len(certs))
	for i, c := range certs {
		got[i] = c.FileName
	}
	expected := []string{
		"certificate_E1_Ada",
		"certificate_E1_Ada_U2",
		"certificate_E2_Bob",
		"certificate_E1_Ada_U2_2",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestSummary(t *testing.T) {
	expected := `Certificate Generation Summary
Generated at: 2024-03-05 10:00:00
Total students: 3
Successful: 2
Failed: 1

Generated certificates:
- Ada Lovelace: certificate_E1_Ada_Lovelace.pdf
- Alan Turing: certificate_U3_Alan_Turing.pdf

Errors:
- Grace Hopper: render failed
`
	if got := Summary(sampleResult()); got != expected {
		t.Errorf("unexpected summary:\n%s", got)
	}
}

func TestSummaryWorkbook(t *testing.T) {
	data, err := SummaryWorkbook(sampleResult())
	if err != nil {
		t.Fatalf("SummaryWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Summary", "Certificates", "Errors"}) {
		t.Errorf("unexpected sheets %v", got)
	}

	rows, err := f.GetRows(successSheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][2] != "certificate_E1_Ada_Lovelace.pdf" {
		t.Errorf("unexpected certificate rows %v", rows)
	}

	total, err := f.GetCellValue(summarySheetName, "B2")
	if err != nil || total != "3" {
		t.Errorf("expected total 3, got %q (%v)", total, err)
	}
}

func TestBundle(t *testing.T) {
	data, err := Bundle(sampleResult())
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}

	contents := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(b)
		names = append(names, f.Name)
	}
	sort.Strings(names)

	expected := []string{
		"pdf/certificate_E1_Ada_Lovelace.pdf",
		"pdf/certificate_U3_Alan_Turing.pdf",
		"png/certificate_E1_Ada_Lovelace.png",
		"png/certificate_U3_Alan_Turing.png",
		"summary.txt",
	}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
	if contents["pdf/certificate_U3_Alan_Turing.pdf"] != "pdf-3" {
		t.Errorf("unexpected pdf content %q", contents["pdf/certificate_U3_Alan_Turing.pdf"])
	}
	if !strings.HasPrefix(contents["summary.txt"], "Certificate Generation Summary") {
		t.Error("expected summary in bundle")
	}
}

func TestDeliverIndividually(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.FileDelay = time.Millisecond
	sink := &memorySink{}

	written, err := NewMaterializer(cfg).DeliverIndividually(context.Background(), sampleResult(), sink)
	if err != nil {
		t.Fatalf("DeliverIndividually failed: %v", err)
	}

	expected := []string{
		"certificate_E1_Ada_Lovelace.pdf",
		"certificate_E1_Ada_Lovelace.png",
		"certificate_U3_Alan_Turing.pdf",
		"certificate_U3_Alan_Turing.png",
		"summary.txt",
	}
	if !reflect.DeepEqual(written, expected) || !reflect.DeepEqual(sink.order, expected) {
		t.Errorf("expected %v, got %v (sink %v)", expected, written, sink.order)
	}
}

func TestDeliverIndividuallySinkError(t *testing.T) {
	sinkErr := errors.New("disk full")
	written, err := NewMaterializer(nil).DeliverIndividually(context.Background(), sampleResult(), &memorySink{err: sinkErr})
	if !errors.Is(err, sinkErr) {
		t.Errorf("expected sink error, got %v", err)
	}
	if len(written) != 0 {
		t.Errorf("expected nothing written, got %v", written)
	}
}

func TestDeliverBundle(t *testing.T) {
	m := NewMaterializer(nil)
	m.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	sink := &memorySink{}

	name, err := m.DeliverBundle(context.Background(), sampleResult(), sink)
	if err != nil {
		t.Fatalf("DeliverBundle failed: %v", err)
	}
	if name != "certificates_20240305_100000.zip" {
		t.Errorf("unexpected bundle name %q", name)
	}
	if len(sink.files[name]) == 0 {
		t.Error("expected bundle bytes in sink")
	}
}
