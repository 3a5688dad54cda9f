package autocert

import (
	"reflect"
	"testing"
	"time"
)

func fixedResolver(t time.Time) *Resolver {
	r := NewResolver("")
	r.now = func() time.Time { return t }
	return r
}

func TestFindCSVRow(t *testing.T) {
	rows := []CSVRow{
		{"user_id": "U1", "enrollment_number": "E1", "score": "10"},
		{"user_id": "U9", "enrollment_number": "E2", "score": "20"},
		{"user_id": "U1", "enrollment_number": "E1", "score": "30"},
	}

	tests := []struct {
		name    string
		student Student
		score   string
		found   bool
	}{
		{"first row by user id", Student{UserID: "U1"}, "10", true},
		{"fallback by enrollment", Student{UserID: "U2", EnrollmentID: "E2"}, "20", true},
		{"no match", Student{UserID: "U3", EnrollmentID: "E3"}, "", false},
		{"empty enrollment never matches", Student{UserID: "U3"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := FindCSVRow(tt.student, rows)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if ok && row["score"] != tt.score {
				t.Errorf("expected score %q, got %q", tt.score, row["score"])
			}
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	r := fixedResolver(now)

	student := Student{
		UserID:       "U1",
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		EnrollmentID: "E1",
		DynamicFields: map[string]any{
			"course": "Analytical Engines",
			"score":  "from-dynamic",
			"hours":  float64(42),
		},
	}
	row := CSVRow{"user_id": "U1", "student_name": "csv name", "score": "95"}

	mappings := []FieldMapping{
		{ID: "f1", FieldName: "student_name", DisplayName: "Student Name"},
		{ID: "f2", FieldName: "full_name", DisplayName: "Full Name"},
		{ID: "f3", FieldName: "score", DisplayName: "Score"},
		{ID: "f4", FieldName: "course", DisplayName: "Course"},
		{ID: "f5", FieldName: "hours", DisplayName: "Hours"},
		{ID: "f6", FieldName: "grade", DisplayName: "Grade"},
		{ID: "f7", FieldName: "institute_name", DisplayName: "Institute"},
		{ID: "f8", FieldName: "completion_date", DisplayName: "Date"},
		{ID: "f9", FieldName: "mobile_number", DisplayName: "Mobile"},
	}

	expected := map[string]string{
		"f1": "Ada Lovelace",
		"f2": "Ada Lovelace",
		"f3": "95",
		"f4": "Analytical Engines",
		"f5": "42",
		"f6": "Sample Grade",
		"f7": DefaultInstituteName,
		"f8": "March 5, 2024",
		"f9": "",
	}

	got := r.Resolve(student, mappings, row)
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestResolveIsTotal(t *testing.T) {
	r := NewResolver("Acme")
	mappings := []FieldMapping{
		{ID: "a", FieldName: "unknown", DisplayName: "Unknown"},
		{ID: "b", FieldName: "institute_name"},
		{ID: "c", FieldName: ""},
	}

	for _, row := range []CSVRow{nil, {}} {
		got := r.Resolve(Student{}, mappings, row)
		if len(got) != len(mappings) {
			t.Fatalf("expected %d values, got %d", len(mappings), len(got))
		}
		for _, fm := range mappings {
			if _, ok := got[fm.ID]; !ok {
				t.Errorf("missing value for %s", fm.ID)
			}
		}
		if got["b"] != "Acme" {
			t.Errorf("expected fallback institute, got %q", got["b"])
		}
		if got["a"] != "Sample Unknown" {
			t.Errorf("expected placeholder, got %q", got["a"])
		}
	}
}
