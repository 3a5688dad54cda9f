package autocert

import (
	"time"
)

const (
	FieldUserID           = "user_id"
	FieldEnrollmentNumber = "enrollment_number"
	FieldStudentName      = "student_name"
	FieldFullName         = "full_name"
	FieldEmail            = "email"
	FieldMobileNumber     = "mobile_number"
	FieldInstituteName    = "institute_name"
	FieldCompletionDate   = "completion_date"

	DefaultInstituteName = "Vidyayatan Institute"
	CompletionDateLayout = "January 2, 2006"
)

// SystemFields lists the fields that always resolve from the student record.
func SystemFields() []PaletteField {
	return []PaletteField{
		{Name: FieldUserID, DisplayName: "User ID", ValueType: ValueTypeText},
		{Name: FieldEnrollmentNumber, DisplayName: "Enrollment Number", ValueType: ValueTypeText},
		{Name: FieldStudentName, DisplayName: "Student Name", ValueType: ValueTypeText},
		{Name: FieldEmail, DisplayName: "Email", ValueType: ValueTypeText},
		{Name: FieldMobileNumber, DisplayName: "Mobile Number", ValueType: ValueTypeText},
		{Name: FieldInstituteName, DisplayName: "Institute Name", ValueType: ValueTypeText},
		{Name: FieldCompletionDate, DisplayName: "Completion Date", ValueType: ValueTypeDate},
	}
}

type Resolver struct {
	// Used when the student record carries no institute name.
	FallbackInstitute string
	now               func() time.Time
}

func NewResolver(fallbackInstitute string) *Resolver {
	if fallbackInstitute == "" {
		fallbackInstitute = DefaultInstituteName
	}
	return &Resolver{FallbackInstitute: fallbackInstitute, now: time.Now}
}

// FindCSVRow returns the first row matching the student's id, falling back to the enrollment id.
func FindCSVRow(student Student, rows []CSVRow) (CSVRow, bool) {
	for _, row := range rows {
		if row[FieldUserID] == student.UserID {
			return row, true
		}
	}

	if student.EnrollmentID == "" {
		return nil, false
	}

	for _, row := range rows {
		if row[FieldEnrollmentNumber] == student.EnrollmentID {
			return row, true
		}
	}

	return nil, false
}

// Resolve maps every field mapping id to its display string. It never fails.
func (r *Resolver) Resolve(student Student, mappings []FieldMapping, row CSVRow) map[string]string {
	now := r.now()
	values := make(map[string]string, len(mappings))

	for _, fm := range mappings {
		values[fm.ID] = r.resolveField(student, fm, row, now)
	}

	return values
}

func (r *Resolver) resolveField(student Student, fm FieldMapping, row CSVRow, now time.Time) string {
	if v, ok := r.systemValue(student, fm.FieldName, now); ok {
		return v
	}

	if row != nil {
		if v, ok := row[fm.FieldName]; ok {
			return v
		}
	}

	if v, ok := student.DynamicFields[fm.FieldName]; ok {
		return stringify(v)
	}

	return "Sample " + fm.DisplayName
}

func (r *Resolver) systemValue(student Student, field string, now time.Time) (string, bool) {
	switch field {
	case FieldUserID:
		return student.UserID, true
	case FieldEnrollmentNumber:
		return student.EnrollmentID, true
	case FieldStudentName, FieldFullName:
		return student.FullName, true
	case FieldEmail:
		return student.Email, true
	case FieldMobileNumber:
		return student.MobileNumber, true
	case FieldInstituteName:
		if student.InstituteName == "" {
			return r.FallbackInstitute, true
		}
		return student.InstituteName, true
	case FieldCompletionDate:
		return now.Format(CompletionDateLayout), true
	}
	return "", false
}

// ResolveFieldValues resolves with the default institute name and a fixed clock.
func ResolveFieldValues(student Student, mappings []FieldMapping, row CSVRow, now time.Time) map[string]string {
	r := &Resolver{FallbackInstitute: DefaultInstituteName, now: func() time.Time { return now }}
	return r.Resolve(student, mappings, row)
}
