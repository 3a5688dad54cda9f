package student

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	return d, ok, nil
}

func (m *memoryCache) Set(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[id] = data
	return nil
}

var records = map[string]string{
	"U1": `{"user_id":"U1","full_name":"Ada Lovelace","email":"ada@example.com","enrollment_id":"E1"}`,
	"U2": `{"data":{"id":"U2","name":"Alan Turing","enrollment_number":"E2","dynamic_fields":{"score":95}}}`,
	"U3": `{"user_id":"U3","full_name":"Grace Hopper","institute_name":"Navy"}`,
}

func newStudentServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/students/")
		body, ok := records[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchManyPreservesOrder(t *testing.T) {
	var hits atomic.Int32
	srv := newStudentServer(t, &hits)
	client := NewClient(config.StudentServiceConfig{URL: srv.URL + "/", Timeout: time.Second}, nil, nil)

	students, err := client.FetchMany(context.Background(), []string{"U3", "U1", "U2"})
	if err != nil {
		t.Fatalf("FetchMany failed: %v", err)
	}

	if got := autocert.StudentIDs(students); !reflect.DeepEqual(got, []string{"U3", "U1", "U2"}) {
		t.Errorf("unexpected order %v", got)
	}

	expected := autocert.Student{
		UserID:        "U2",
		FullName:      "Alan Turing",
		EnrollmentID:  "E2",
		DynamicFields: map[string]any{"score": float64(95)},
	}
	if !reflect.DeepEqual(students[2], expected) {
		t.Errorf("expected %+v, got %+v", expected, students[2])
	}
}

func TestFetchManyFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := newStudentServer(t, &hits)
	client := NewClient(config.StudentServiceConfig{URL: srv.URL, Timeout: time.Second}, nil, nil)

	students, err := client.FetchMany(context.Background(), []string{"U1", "missing", "U2"})
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
	if students != nil {
		t.Errorf("expected no partial result, got %v", students)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newStudentServer(t, &hits)
	cache := &memoryCache{}
	client := NewClient(config.StudentServiceConfig{URL: srv.URL, Timeout: time.Second}, cache, nil)

	for range 3 {
		s, err := client.Fetch(context.Background(), "U1")
		if err != nil {
			t.Fatal(err)
		}
		if s.FullName != "Ada Lovelace" {
			t.Errorf("unexpected student %+v", s)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected one upstream request, got %d", hits.Load())
	}
}

func TestToStudent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    autocert.Student
		wantErr bool
	}{
		{"flat", records["U1"], autocert.Student{UserID: "U1", FullName: "Ada Lovelace", Email: "ada@example.com", EnrollmentID: "E1"}, false},
		{"numeric id", `{"id":42,"name":"N"}`, autocert.Student{UserID: "42", FullName: "N"}, false},
		{"phone alias", `{"user_id":"U9","phone":"+855"}`, autocert.Student{UserID: "U9", MobileNumber: "+855"}, false},
		{"missing id", `{"name":"N"}`, autocert.Student{}, true},
		{"invalid json", `{`, autocert.Student{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToStudent([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToStudent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
