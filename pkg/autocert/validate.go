package autocert

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type IssueType string

const (
	IssueInvalidHeader    IssueType = "invalid_header"
	IssueMissingStudent   IssueType = "missing_student"
	IssueExtraStudent     IssueType = "extra_student"
	IssueDataTypeMismatch IssueType = "data_type_mismatch"
	IssueEmptyCell        IssueType = "empty_cell"
)

type InferredType string

const (
	InferredNumber  InferredType = "number"
	InferredDate    InferredType = "date"
	InferredString  InferredType = "string"
	InferredUnknown InferredType = "unknown"
)

// Data rows start at row 2, after the header.
const firstDataRow = 2

// RequiredHeaders are the fixed leading columns of every upload.
var RequiredHeaders = []string{FieldUserID, FieldEnrollmentNumber, FieldStudentName}

type ValidationIssue struct {
	Type    IssueType `json:"type"`
	Row     int       `json:"row,omitempty"`
	Column  string    `json:"column,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message"`
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
}

// InferType classifies a single cell value.
func InferType(value string) InferredType {
	v := strings.TrimSpace(value)
	if v == "" {
		return InferredUnknown
	}
	// ParseFloat also accepts NaN and Inf spellings, which are names here, not numbers.
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return InferredNumber
	}
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return InferredDate
		}
	}
	return InferredString
}

// ValidateCSV runs every check in order without short-circuiting so one pass reports all problems.
// Warnings never affect IsValid.
func ValidateCSV(rows []CSVRow, headers []string, students []Student) ValidationResult {
	v := &validation{
		result: ValidationResult{
			Errors:   []ValidationIssue{},
			Warnings: []ValidationIssue{},
		},
	}

	v.checkHeaderShape(headers)
	v.checkHeaderUniqueness(headers)
	v.checkRosterCompleteness(rows, students)
	v.checkExtraneousRows(rows, students)
	v.checkColumnTypes(rows, headers)
	v.checkRequiredCells(rows)

	v.result.IsValid = len(v.result.Errors) == 0
	return v.result
}

type validation struct {
	result ValidationResult
}

func (v *validation) addError(issue ValidationIssue) {
	v.result.Errors = append(v.result.Errors, issue)
}

func (v *validation) addWarning(issue ValidationIssue) {
	v.result.Warnings = append(v.result.Warnings, issue)
}

func (v *validation) checkHeaderShape(headers []string) {
	for i, expected := range RequiredHeaders {
		actual := ""
		if i < len(headers) {
			actual = headers[i]
		}
		if actual == expected {
			continue
		}
		v.addError(ValidationIssue{
			Type:    IssueInvalidHeader,
			Row:     1,
			Column:  expected,
			Value:   actual,
			Message: fmt.Sprintf("column %d must be %q, got %q", i+1, expected, actual),
		})
	}
}

func (v *validation) checkHeaderUniqueness(headers []string) {
	if len(headers) <= len(RequiredHeaders) {
		return
	}

	seen := make(map[string]bool)
	reported := make(map[string]bool)
	for _, h := range headers[len(RequiredHeaders):] {
		if seen[h] && !reported[h] {
			reported[h] = true
			v.addError(ValidationIssue{
				Type:    IssueInvalidHeader,
				Row:     1,
				Column:  h,
				Message: fmt.Sprintf("duplicate column %q", h),
			})
		}
		seen[h] = true
	}
}

func (v *validation) checkRosterCompleteness(rows []CSVRow, students []Student) {
	csvIDs := make(map[string]bool, len(rows))
	for _, row := range rows {
		csvIDs[row[FieldUserID]] = true
	}

	for _, s := range students {
		if csvIDs[s.UserID] {
			continue
		}
		v.addError(ValidationIssue{
			Type:    IssueMissingStudent,
			Column:  FieldUserID,
			Value:   s.UserID,
			Message: fmt.Sprintf("student %s (%s) is missing from the csv", s.FullName, s.UserID),
		})
	}
}

func (v *validation) checkExtraneousRows(rows []CSVRow, students []Student) {
	selected := make(map[string]bool, len(students))
	for _, s := range students {
		selected[s.UserID] = true
	}

	for i, row := range rows {
		id := row[FieldUserID]
		if selected[id] {
			continue
		}
		v.addError(ValidationIssue{
			Type:    IssueExtraStudent,
			Row:     i + firstDataRow,
			Column:  FieldUserID,
			Value:   id,
			Message: fmt.Sprintf("row %d: user %q is not among the selected students", i+firstDataRow, id),
		})
	}
}

func (v *validation) checkColumnTypes(rows []CSVRow, headers []string) {
	if len(headers) <= len(RequiredHeaders) {
		return
	}

	for _, column := range uniqueHeaders(headers[len(RequiredHeaders):]) {
		dominant := dominantType(rows, column)
		if dominant == InferredUnknown {
			continue
		}

		for i, row := range rows {
			value := row[column]
			t := InferType(value)
			if t == InferredUnknown || t == dominant {
				continue
			}
			v.addWarning(ValidationIssue{
				Type:    IssueDataTypeMismatch,
				Row:     i + firstDataRow,
				Column:  column,
				Value:   value,
				Message: fmt.Sprintf("row %d: %q in column %q looks like %s, expected %s", i+firstDataRow, value, column, t, dominant),
			})
		}
	}
}

func (v *validation) checkRequiredCells(rows []CSVRow) {
	for i, row := range rows {
		for _, column := range RequiredHeaders {
			if strings.TrimSpace(row[column]) != "" {
				continue
			}
			v.addWarning(ValidationIssue{
				Type:    IssueEmptyCell,
				Row:     i + firstDataRow,
				Column:  column,
				Message: fmt.Sprintf("row %d: %q is empty", i+firstDataRow, column),
			})
		}
	}
}

// dominantType is decided by majority vote over non-empty values; ties go to number, then date, then string.
func dominantType(rows []CSVRow, column string) InferredType {
	counts := make(map[InferredType]int)
	for _, row := range rows {
		if t := InferType(row[column]); t != InferredUnknown {
			counts[t]++
		}
	}

	dominant := InferredUnknown
	best := 0
	for _, t := range []InferredType{InferredNumber, InferredDate, InferredString} {
		if counts[t] > best {
			dominant = t
			best = counts[t]
		}
	}
	return dominant
}

func uniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
