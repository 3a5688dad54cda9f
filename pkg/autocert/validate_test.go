package autocert

import (
	"testing"
)

var scoreHeaders = []string{"user_id", "enrollment_number", "student_name", "score"}

func TestValidateCSVExamples(t *testing.T) {
	students := []Student{{UserID: "U1", FullName: "A"}}

	t.Run("matching roster is valid", func(t *testing.T) {
		rows := []CSVRow{{"user_id": "U1", "enrollment_number": "E1", "student_name": "A", "score": "95"}}
		result := ValidateCSV(rows, scoreHeaders, students)
		if !result.IsValid {
			t.Fatalf("expected valid, got errors %v", result.Errors)
		}
		if len(result.Errors) != 0 || len(result.Warnings) != 0 {
			t.Errorf("expected no issues, got %v / %v", result.Errors, result.Warnings)
		}
	})

	t.Run("extra row is one extra_student error", func(t *testing.T) {
		rows := []CSVRow{
			{"user_id": "U1", "enrollment_number": "E1", "student_name": "A", "score": "95"},
			{"user_id": "U2", "enrollment_number": "E2", "student_name": "B", "score": "80"},
		}
		result := ValidateCSV(rows, scoreHeaders, students)
		if result.IsValid {
			t.Fatal("expected invalid")
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 error, got %v", result.Errors)
		}
		e := result.Errors[0]
		if e.Type != IssueExtraStudent || e.Row != 3 || e.Value != "U2" {
			t.Errorf("unexpected error %+v", e)
		}
	})

	t.Run("missing student", func(t *testing.T) {
		result := ValidateCSV([]CSVRow{}, scoreHeaders, students)
		if result.IsValid {
			t.Fatal("expected invalid")
		}
		if len(result.Errors) != 1 || result.Errors[0].Type != IssueMissingStudent {
			t.Errorf("expected one missing_student error, got %v", result.Errors)
		}
	})
}

func TestValidateCSVHeaders(t *testing.T) {
	students := []Student{{UserID: "U1"}}
	rows := []CSVRow{{"user_id": "U1", "enrollment_number": "E1", "student_name": "A"}}

	tests := []struct {
		name    string
		headers []string
		errors  int
	}{
		{"exact", []string{"user_id", "enrollment_number", "student_name"}, 0},
		{"swapped", []string{"enrollment_number", "user_id", "student_name"}, 2},
		{"too short", []string{"user_id"}, 2},
		{"duplicate dynamic", []string{"user_id", "enrollment_number", "student_name", "score", "score", "score"}, 1},
		{"duplicate of fixed column is allowed", []string{"user_id", "enrollment_number", "student_name", "user_id"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateCSV(rows, tt.headers, students)
			if len(result.Errors) != tt.errors {
				t.Fatalf("expected %d errors, got %v", tt.errors, result.Errors)
			}
			for _, e := range result.Errors {
				if e.Type != IssueInvalidHeader {
					t.Errorf("expected invalid_header, got %s", e.Type)
				}
			}
			if result.IsValid != (tt.errors == 0) {
				t.Errorf("IsValid = %v with %d errors", result.IsValid, tt.errors)
			}
		})
	}
}

func TestValidateCSVRunsAllChecks(t *testing.T) {
	students := []Student{{UserID: "U1"}, {UserID: "U2"}}
	headers := []string{"user_id", "name", "student_name", "score"}
	rows := []CSVRow{
		{"user_id": "U1", "student_name": "", "score": "10"},
		{"user_id": "U3", "student_name": "C", "score": "11"},
		{"user_id": "U4", "student_name": "D", "score": "twelve"},
	}

	result := ValidateCSV(rows, headers, students)

	counts := map[IssueType]int{}
	for _, e := range result.Errors {
		counts[e.Type]++
	}
	for _, w := range result.Warnings {
		counts[w.Type]++
	}

	expected := map[IssueType]int{
		IssueInvalidHeader:    1,
		IssueMissingStudent:   1,
		IssueExtraStudent:     2,
		IssueDataTypeMismatch: 1,
		// enrollment_number is absent in every row, student_name empty in row 2
		IssueEmptyCell: 4,
	}
	for k, want := range expected {
		if counts[k] != want {
			t.Errorf("%s: expected %d, got %d", k, want, counts[k])
		}
	}
}

func TestValidateWarningsDoNotBlock(t *testing.T) {
	students := []Student{{UserID: "U1"}, {UserID: "U2"}, {UserID: "U3"}}
	rows := []CSVRow{
		{"user_id": "U1", "enrollment_number": "E1", "student_name": "A", "score": "1"},
		{"user_id": "U2", "enrollment_number": "E2", "student_name": "B", "score": "2"},
		{"user_id": "U3", "enrollment_number": "", "student_name": "C", "score": "2024-01-01"},
	}

	result := ValidateCSV(rows, scoreHeaders, students)
	if !result.IsValid {
		t.Fatalf("expected valid, got %v", result.Errors)
	}

	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", result.Warnings)
	}
	mismatch := result.Warnings[0]
	if mismatch.Type != IssueDataTypeMismatch || mismatch.Row != 4 || mismatch.Column != "score" || mismatch.Value != "2024-01-01" {
		t.Errorf("unexpected mismatch warning %+v", mismatch)
	}
	if result.Warnings[1].Type != IssueEmptyCell {
		t.Errorf("expected empty_cell, got %+v", result.Warnings[1])
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		value string
		want  InferredType
	}{
		{"42", InferredNumber},
		{" 3.14 ", InferredNumber},
		{"-7", InferredNumber},
		{"2024-02-29", InferredDate},
		{"02/29/2024", InferredDate},
		{"02-29-2024", InferredDate},
		{"2024/02/29", InferredString},
		{"hello", InferredString},
		{"Nan", InferredString},
		{"NaN", InferredString},
		{"Inf", InferredString},
		{"-inf", InferredString},
		{"infinity", InferredString},
		{"", InferredUnknown},
		{"   ", InferredUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := InferType(tt.value); got != tt.want {
				t.Errorf("InferType(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidityMatchesIDSets(t *testing.T) {
	students := []Student{{UserID: "A"}, {UserID: "B"}, {UserID: "C"}}
	headers := []string{"user_id", "enrollment_number", "student_name"}

	full := []CSVRow{}
	for _, s := range students {
		full = append(full, CSVRow{"user_id": s.UserID, "enrollment_number": "E" + s.UserID, "student_name": s.UserID})
	}
	if !ValidateCSV(full, headers, students).IsValid {
		t.Fatal("expected equal id sets to validate")
	}

	for i := range full {
		removed := append(append([]CSVRow{}, full[:i]...), full[i+1:]...)
		if ValidateCSV(removed, headers, students).IsValid {
			t.Errorf("removing %s should invalidate", full[i]["user_id"])
		}
	}

	added := append(append([]CSVRow{}, full...), CSVRow{"user_id": "Z", "enrollment_number": "EZ", "student_name": "Z"})
	if ValidateCSV(added, headers, students).IsValid {
		t.Error("adding an unknown id should invalidate")
	}
}
