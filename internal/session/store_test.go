package session

import (
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"
	"time"

	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
)

func testTemplate() *autocert.Template {
	return &autocert.Template{ID: "tpl", Width: 800, Height: 600, SourceFormat: autocert.SourceFormatImage, Image: image.NewRGBA(image.Rect(0, 0, 800, 600))}
}

func newSession(t *testing.T, st *Store) Session {
	t.Helper()
	s, err := st.Create("owner", []autocert.Student{{UserID: "U1", FullName: "Ada", EnrollmentID: "E1", DynamicFields: map[string]any{"course": "Go"}}})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func ptr(v float64) *float64 { return &v }

func TestCreateAndGet(t *testing.T) {
	st := NewStore(nil)
	if _, err := st.Create("owner", nil); !errors.Is(err, ErrNoStudents) {
		t.Errorf("expected ErrNoStudents, got %v", err)
	}

	s := newSession(t, st)
	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OwnerID != "owner" || len(got.Students) != 1 {
		t.Errorf("unexpected session %+v", got)
	}

	if _, err := st.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMappingsRequireTemplate(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)

	if _, err := st.AddMapping(s.ID, autocert.PaletteField{Name: autocert.FieldStudentName}); !errors.Is(err, ErrTemplateRequired) {
		t.Errorf("expected ErrTemplateRequired, got %v", err)
	}
}

func TestTemplateReplacementClearsMappings(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)

	if _, err := st.SetTemplate(s.ID, testTemplate()); err != nil {
		t.Fatal(err)
	}
	fm, err := st.AddMapping(s.ID, autocert.PaletteField{Name: autocert.FieldStudentName, DisplayName: "Student Name"})
	if err != nil {
		t.Fatal(err)
	}
	if fm.Rect != (autocert.Rect{X: 300, Y: 280, Width: 200, Height: 40}) {
		t.Errorf("expected centred default rect, got %+v", fm.Rect)
	}

	got, err := st.SetTemplate(s.ID, testTemplate())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Mappings) != 0 {
		t.Errorf("expected mappings cleared, got %v", got.Mappings)
	}

	if _, err := st.AddMapping(s.ID, autocert.PaletteField{Name: autocert.FieldEmail}); err != nil {
		t.Fatal(err)
	}
	got, err = st.RemoveTemplate(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Template != nil || len(got.Mappings) != 0 {
		t.Errorf("expected template and mappings removed, got %+v", got)
	}
}

func TestUpdateMapping(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)
	if _, err := st.SetTemplate(s.ID, testTemplate()); err != nil {
		t.Fatal(err)
	}
	fm, err := st.AddMapping(s.ID, autocert.PaletteField{Name: autocert.FieldStudentName})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		update MappingUpdate
		want   autocert.Rect
	}{
		{"move", MappingUpdate{X: ptr(10), Y: ptr(20)}, autocert.Rect{X: 10, Y: 20, Width: 200, Height: 40}},
		{"move outside is clamped", MappingUpdate{X: ptr(700)}, autocert.Rect{X: 600, Y: 20, Width: 200, Height: 40}},
		{"resize below minimum", MappingUpdate{Width: ptr(10), Height: ptr(5)}, autocert.Rect{X: 600, Y: 20, Width: 50, Height: 16}},
		{"resize larger than template", MappingUpdate{Width: ptr(2000)}, autocert.Rect{X: 0, Y: 20, Width: 800, Height: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.UpdateMapping(s.ID, fm.ID, tt.update)
			if err != nil {
				t.Fatal(err)
			}
			if got.Rect != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got.Rect)
			}
		})
	}

	align := autocert.TextAlignLeft
	styled, err := st.UpdateMapping(s.ID, fm.ID, MappingUpdate{Style: &autocert.StyleUpdate{FontSize: ptr(32), Align: &align}})
	if err != nil {
		t.Fatal(err)
	}
	if styled.Style.FontSize != 32 || styled.Style.Align != autocert.TextAlignLeft || styled.Style.Color != "#000000" {
		t.Errorf("unexpected style %+v", styled.Style)
	}

	unpadded, err := st.UpdateMapping(s.ID, fm.ID, MappingUpdate{Style: &autocert.StyleUpdate{Padding: ptr(0)}})
	if err != nil {
		t.Fatal(err)
	}
	if unpadded.Style.Padding != 0 || unpadded.Style.FontSize != 32 {
		t.Errorf("expected padding 0 and font size kept, got %+v", unpadded.Style)
	}

	if _, err := st.UpdateMapping(s.ID, "missing", MappingUpdate{}); !errors.Is(err, ErrMappingNotFound) {
		t.Errorf("expected ErrMappingNotFound, got %v", err)
	}
}

func TestDeleteAndClearMappings(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)
	if _, err := st.SetTemplate(s.ID, testTemplate()); err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		fm, err := st.AddMapping(s.ID, autocert.PaletteField{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, fm.ID)
	}

	got, err := st.DeleteMapping(s.ID, ids[1])
	if err != nil {
		t.Fatal(err)
	}
	var left []string
	for _, m := range got.Mappings {
		left = append(left, m.ID)
	}
	if !reflect.DeepEqual(left, []string{ids[0], ids[2]}) {
		t.Errorf("expected %v, got %v", []string{ids[0], ids[2]}, left)
	}

	got, err = st.ClearMappings(s.ID)
	if err != nil || len(got.Mappings) != 0 {
		t.Errorf("expected no mappings, got %v (%v)", got.Mappings, err)
	}
}

func TestCSVAndCanGenerate(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)

	got, _ := st.Get(s.ID)
	if got.CanGenerate() {
		t.Error("expected generation blocked without template")
	}

	if _, err := st.SetTemplate(s.ID, testTemplate()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.AddMapping(s.ID, autocert.PaletteField{Name: autocert.FieldStudentName}); err != nil {
		t.Fatal(err)
	}
	got, _ = st.Get(s.ID)
	if !got.CanGenerate() {
		t.Error("expected generation allowed without CSV")
	}

	headers := []string{"user_id", "enrollment_number", "student_name", "score"}
	invalid := &autocert.CSVUpload{Headers: headers, Rows: []autocert.CSVRow{
		{"user_id": "U1", "enrollment_number": "E1", "student_name": "Ada", "score": "95"},
		{"user_id": "U2", "enrollment_number": "E2", "student_name": "Bob", "score": "80"},
	}}
	res, err := st.SetCSV(s.ID, invalid)
	if err != nil {
		t.Fatal(err)
	}
	if res.IsValid {
		t.Error("expected extra student to invalidate the CSV")
	}
	got, _ = st.Get(s.ID)
	if got.CanGenerate() {
		t.Error("expected generation blocked by invalid CSV")
	}

	valid := &autocert.CSVUpload{Headers: headers, Rows: invalid.Rows[:1]}
	if res, err = st.SetCSV(s.ID, valid); err != nil || !res.IsValid {
		t.Fatalf("expected valid CSV, got %+v (%v)", res, err)
	}
	got, _ = st.Get(s.ID)
	if !got.CanGenerate() || len(got.Rows()) != 1 {
		t.Error("expected generation allowed with a valid CSV")
	}

	if got, err = st.ClearCSV(s.ID); err != nil || got.CSV != nil || got.Validation != nil {
		t.Errorf("expected CSV cleared, got %+v (%v)", got, err)
	}
}

func TestPalette(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)
	if _, err := st.SetCSV(s.ID, &autocert.CSVUpload{
		Headers: []string{"user_id", "enrollment_number", "student_name", "final_score", "course"},
		Rows:    []autocert.CSVRow{{"user_id": "U1", "final_score": "95", "course": "Go"}},
	}); err != nil {
		t.Fatal(err)
	}

	got, _ := st.Get(s.ID)
	palette := got.Palette()
	extra := palette[len(autocert.SystemFields()):]

	expected := []autocert.PaletteField{
		{Name: "final_score", DisplayName: "Final Score", ValueType: autocert.ValueTypeNumber},
		{Name: "course", DisplayName: "Course", ValueType: autocert.ValueTypeText},
	}
	if !reflect.DeepEqual(extra, expected) {
		t.Errorf("expected %+v, got %+v", expected, extra)
	}
}

func TestRuns(t *testing.T) {
	st := NewStore(nil)
	s := newSession(t, st)
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	for i := range 7 {
		r := &autocert.GenerationResult{ID: fmt.Sprintf("run-%d", i), FinishedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := st.SaveRun(s.ID, r); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := st.Run(s.ID, "run-0"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected oldest run evicted, got %v", err)
	}
	if r, err := st.Run(s.ID, "run-6"); err != nil || r.ID != "run-6" {
		t.Errorf("expected latest run, got %v (%v)", r, err)
	}

	got, _ := st.Get(s.ID)
	if got.LastRunID != "run-6" {
		t.Errorf("expected last run id run-6, got %q", got.LastRunID)
	}
}
