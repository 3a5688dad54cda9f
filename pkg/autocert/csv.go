package autocert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const MaxCSVSize = 1 << 20

var (
	ErrInvalidCSVExtension = errors.New("csv file must have a .csv extension")
	ErrCSVTooLarge         = fmt.Errorf("csv file must not exceed %d bytes", MaxCSVSize)
	ErrEmptyCSV            = errors.New("csv file has no header row")
)

// ReadCSV reads and parses CSV data, returning the data as a slice of string slices.
// Each inner slice represents a row of the CSV.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return records, nil
}

func ReadCSVFromFile(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// Reads CSV records and returns the data rows keyed by header.
// The first row is assumed to be the header. Headers are kept verbatim so
// duplicates stay visible to ValidateCSV; the later column wins in the map.
func ParseCSVToMap(records [][]string) ([]CSVRow, error) {
	if len(records) == 0 {
		return []CSVRow{}, nil
	}

	headers := records[0]
	result := make([]CSVRow, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		if isBlankRecord(records[i]) {
			continue
		}

		row := make(CSVRow, len(headers))
		for j, header := range headers {
			if j < len(records[i]) {
				row[header] = strings.TrimSpace(records[i][j])
			} else {
				// Handle missing values
				row[header] = ""
			}
		}
		result = append(result, row)
	}

	return result, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseCSVUpload checks the upload constraints and parses it into a CSVUpload.
// size is the declared size; the reader is also capped so a wrong declaration cannot bypass the limit.
func ParseCSVUpload(name string, size int64, r io.Reader) (*CSVUpload, error) {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil, ErrInvalidCSVExtension
	}
	if size > MaxCSVSize {
		return nil, ErrCSVTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxCSVSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading csv upload: %w", err)
	}
	if len(data) > MaxCSVSize {
		return nil, ErrCSVTooLarge
	}

	records, err := ReadCSV(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyCSV
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	records[0] = headers

	rows, err := ParseCSVToMap(records)
	if err != nil {
		return nil, err
	}

	return &CSVUpload{
		FileName:   filepath.Base(name),
		Headers:    headers,
		Rows:       rows,
		UploadedAt: time.Now(),
	}, nil
}
