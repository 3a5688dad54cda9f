package session

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
)

// Session holds the working state of one certificate design for a fixed roster.
type Session struct {
	ID         string                     `json:"id"`
	OwnerID    string                     `json:"ownerId"`
	Students   []autocert.Student         `json:"students"`
	Template   *autocert.Template         `json:"template,omitempty"`
	Mappings   []autocert.FieldMapping    `json:"mappings"`
	CSV        *autocert.CSVUpload        `json:"csv,omitempty"`
	Validation *autocert.ValidationResult `json:"validation,omitempty"`
	LastRunID  string                     `json:"lastRunId,omitempty"`
	CreatedAt  time.Time                  `json:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

// CanGenerate requires a template, at least one mapping and either no CSV or a valid one.
func (s Session) CanGenerate() bool {
	if s.Template == nil || len(s.Mappings) == 0 {
		return false
	}
	return s.CSV == nil || (s.Validation != nil && s.Validation.IsValid)
}

// Rows returns the CSV rows, nil without an upload.
func (s Session) Rows() []autocert.CSVRow {
	if s.CSV == nil {
		return nil
	}
	return s.CSV.Rows
}

// Palette lists the system fields followed by CSV columns and dynamic fields not already covered.
func (s Session) Palette() []autocert.PaletteField {
	palette := autocert.SystemFields()
	seen := make(map[string]bool, len(palette))
	for _, f := range palette {
		seen[f.Name] = true
	}
	seen[autocert.FieldFullName] = true

	add := func(name string, vt autocert.ValueType) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		palette = append(palette, autocert.PaletteField{Name: name, DisplayName: humanize(name), ValueType: vt})
	}

	if s.CSV != nil {
		for _, h := range s.CSV.Headers {
			add(h, valueTypeOf(autocert.InferType(firstValue(s.CSV.Rows, h))))
		}
	}

	var dynamic []string
	for _, st := range s.Students {
		for k := range st.DynamicFields {
			dynamic = append(dynamic, k)
		}
	}
	slices.Sort(dynamic)
	for _, k := range dynamic {
		add(k, autocert.ValueTypeText)
	}

	return palette
}

func (s Session) clone() Session {
	out := s
	out.Students = slices.Clone(s.Students)
	out.Mappings = slices.Clone(s.Mappings)
	return out
}

func firstValue(rows []autocert.CSVRow, column string) string {
	for _, r := range rows {
		if v := strings.TrimSpace(r[column]); v != "" {
			return v
		}
	}
	return ""
}

func valueTypeOf(t autocert.InferredType) autocert.ValueType {
	switch t {
	case autocert.InferredNumber:
		return autocert.ValueTypeNumber
	case autocert.InferredDate:
		return autocert.ValueTypeDate
	default:
		return autocert.ValueTypeText
	}
}

// "course_name" -> "Course Name"
func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
