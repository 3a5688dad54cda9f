package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	filestorage "github.com/SeakMengs/AutoCertLMS/internal/file_storage"
	"github.com/SeakMengs/AutoCertLMS/internal/student"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	TemplatePath string
	FieldsPath   string
	StudentsPath string
	CSVPath      string
	OutputDir    string
	FontMetadata string
	Bundle       bool
	BatchSize    int
	Institute    string
}

var ErrInvalidCSV = errors.New("csv does not match the roster")

func main() {
	var opts options
	pflag.StringVarP(&opts.TemplatePath, "template", "t", "", "certificate template (pdf, png, jpg or webp)")
	pflag.StringVarP(&opts.FieldsPath, "fields", "f", "", "json file with the field mappings")
	pflag.StringVarP(&opts.StudentsPath, "students", "s", "", "json file with an array of student records")
	pflag.StringVarP(&opts.CSVPath, "csv", "c", "", "optional csv with per student values")
	pflag.StringVarP(&opts.OutputDir, "out", "o", "output", "output directory")
	pflag.StringVar(&opts.FontMetadata, "fonts", "font_metadata.json", "font metadata file written by scan_font")
	pflag.BoolVarP(&opts.Bundle, "bundle", "b", false, "write a single zip instead of individual files")
	pflag.IntVar(&opts.BatchSize, "batch-size", autocert.DefaultBatchSize, "certificates rendered concurrently")
	pflag.StringVar(&opts.Institute, "institute", autocert.DefaultInstituteName, "institute name used when a student has none")
	pflag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if opts.TemplatePath == "" || opts.FieldsPath == "" || opts.StudentsPath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	written, err := run(ctx, opts, logger)
	if err != nil {
		logger.Fatal(err)
	}

	for _, name := range written {
		fmt.Println(filepath.Join(opts.OutputDir, name))
	}
}

func run(ctx context.Context, opts options, logger *zap.SugaredLogger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fonts, err := autocert.NewFontLoader(opts.FontMetadata, logger)
	if err != nil {
		return nil, err
	}

	tpl, err := loadTemplate(ctx, opts.TemplatePath, logger)
	if err != nil {
		return nil, err
	}

	var mappings []autocert.FieldMapping
	if err := readJSON(opts.FieldsPath, &mappings); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	for i, m := range mappings {
		if m.Style == (autocert.FieldStyle{}) {
			m.Style = autocert.DefaultFieldStyle()
		}
		mappings[i] = m.Move(m.Rect.X, m.Rect.Y, tpl)
	}

	students, err := loadStudents(opts.StudentsPath)
	if err != nil {
		return nil, err
	}

	var rows []autocert.CSVRow
	if opts.CSVPath != "" {
		rows, err = loadRows(opts.CSVPath, students, logger)
		if err != nil {
			return nil, err
		}
	}

	cfg := autocert.NewDefaultConfig()
	cfg.BatchSize = opts.BatchSize
	cfg.InstituteName = opts.Institute
	cfg.Logger = logger

	generator := autocert.NewGenerator(autocert.NewCertificateBuilder(fonts, cfg), cfg)
	result, err := generator.Generate(ctx, autocert.GenerateInput{
		Template: tpl,
		Mappings: mappings,
		Students: students,
		Rows:     rows,
	}, func(done, total int) {
		logger.Infof("Generated %d/%d", done, total)
	})
	if result == nil {
		return nil, err
	}
	if err != nil {
		logger.Warnf("Generation stopped early: %v", err)
	}

	for _, e := range result.Errors {
		logger.Warnf("%s: %s", e.StudentName, e.Message)
	}

	sink, err := filestorage.NewDirSink(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	materializer := autocert.NewMaterializer(cfg)
	if opts.Bundle {
		name, err := materializer.DeliverBundle(ctx, result, sink)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}

	return materializer.DeliverIndividually(ctx, result, sink)
}

func loadTemplate(ctx context.Context, path string, logger *zap.SugaredLogger) (*autocert.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return autocert.NewTemplateLoader(nil, logger).Load(ctx, filepath.Base(path), info.Size(), f)
}

func loadStudents(path string) ([]autocert.Student, error) {
	var records []json.RawMessage
	if err := readJSON(path, &records); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}

	students := make([]autocert.Student, 0, len(records))
	for i, r := range records {
		s, err := student.ToStudent(r)
		if err != nil {
			return nil, fmt.Errorf("student #%d: %w", i+1, err)
		}
		students = append(students, s)
	}
	return students, nil
}

func loadRows(path string, students []autocert.Student, logger *zap.SugaredLogger) ([]autocert.CSVRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	upload, err := autocert.ParseCSVUpload(filepath.Base(path), info.Size(), f)
	if err != nil {
		return nil, err
	}

	validation := autocert.ValidateCSV(upload.Rows, upload.Headers, students)
	for _, w := range validation.Warnings {
		logger.Warnf("csv: %s", w.Message)
	}
	if !validation.IsValid {
		for _, e := range validation.Errors {
			logger.Errorf("csv: %s", e.Message)
		}
		return nil, ErrInvalidCSV
	}
	return upload.Rows, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
