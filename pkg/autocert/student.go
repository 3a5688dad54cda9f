package autocert

import (
	"fmt"
	"strconv"
	"time"
)

// Student is a read-only roster entry for the duration of a session.
type Student struct {
	UserID        string         `json:"user_id"`
	FullName      string         `json:"full_name"`
	Email         string         `json:"email"`
	EnrollmentID  string         `json:"enrollment_id"`
	InstituteName string         `json:"institute_name"`
	MobileNumber  string         `json:"mobile_number"`
	DynamicFields map[string]any `json:"dynamic_fields,omitempty"`
}

// CSVRow is one parsed data row keyed by header name.
type CSVRow map[string]string

// CSVUpload replaces any prior upload as a whole.
type CSVUpload struct {
	FileName   string    `json:"fileName"`
	Headers    []string  `json:"headers"`
	Rows       []CSVRow  `json:"rows"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func StudentIDs(students []Student) []string {
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.UserID
	}
	return ids
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
