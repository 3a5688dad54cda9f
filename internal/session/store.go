package session

import (
	"errors"
	"sync"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrMappingNotFound  = errors.New("field mapping not found")
	ErrTemplateRequired = errors.New("a template must be uploaded before adding fields")
	ErrRunNotFound      = errors.New("generation run not found")
	ErrNoStudents       = errors.New("at least one student is required")
)

// MappingUpdate carries a partial field mapping change. Nil members are left untouched.
type MappingUpdate struct {
	X      *float64              `json:"x"`
	Y      *float64              `json:"y"`
	Width  *float64              `json:"width" binding:"omitempty,gt=0"`
	Height *float64              `json:"height" binding:"omitempty,gt=0"`
	Style  *autocert.StyleUpdate `json:"style"`
}

type entry struct {
	session Session
	runs    map[string]*autocert.GenerationResult
}

// Store keeps sessions in memory. Every accessor returns copies.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	maxRuns  int
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewStore(logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		sessions: make(map[string]*entry),
		maxRuns:  5,
		logger:   logger,
		now:      time.Now,
	}
}

func (st *Store) Create(ownerID string, students []autocert.Student) (Session, error) {
	if len(students) == 0 {
		return Session{}, ErrNoStudents
	}

	id, err := util.NewSessionID()
	if err != nil {
		return Session{}, err
	}

	now := st.now()
	s := Session{
		ID:        id,
		OwnerID:   ownerID,
		Students:  students,
		Mappings:  []autocert.FieldMapping{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &entry{session: s, runs: make(map[string]*autocert.GenerationResult)}

	st.logger.Debugf("Created session %s for %d students", id, len(students))
	return s.clone(), nil
}

func (st *Store) Get(id string) (Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return e.session.clone(), nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// update runs fn on the live session under the write lock and returns a copy of the result.
func (st *Store) update(id string, fn func(s *Session) error) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	if err := fn(&e.session); err != nil {
		return Session{}, err
	}
	e.session.UpdatedAt = st.now()
	return e.session.clone(), nil
}

// SetTemplate replaces the template and clears every field mapping.
func (st *Store) SetTemplate(id string, tpl *autocert.Template) (Session, error) {
	return st.update(id, func(s *Session) error {
		s.Template = tpl
		s.Mappings = []autocert.FieldMapping{}
		return nil
	})
}

func (st *Store) RemoveTemplate(id string) (Session, error) {
	return st.update(id, func(s *Session) error {
		s.Template = nil
		s.Mappings = []autocert.FieldMapping{}
		return nil
	})
}

func (st *Store) AddMapping(id string, field autocert.PaletteField) (autocert.FieldMapping, error) {
	var fm autocert.FieldMapping
	_, err := st.update(id, func(s *Session) error {
		if s.Template == nil {
			return ErrTemplateRequired
		}
		var err error
		fm, err = autocert.NewFieldMapping(field, s.Template)
		if err != nil {
			return err
		}
		s.Mappings = append(s.Mappings, fm)
		return nil
	})
	return fm, err
}

// UpdateMapping applies a move, then a resize, then a style change; the result is clamped to the template.
func (st *Store) UpdateMapping(id, fieldID string, u MappingUpdate) (autocert.FieldMapping, error) {
	var fm autocert.FieldMapping
	_, err := st.update(id, func(s *Session) error {
		i := indexOfMapping(s.Mappings, fieldID)
		if i < 0 {
			return ErrMappingNotFound
		}

		m := s.Mappings[i]
		if u.X != nil || u.Y != nil {
			m = m.Move(valueOr(u.X, m.Rect.X), valueOr(u.Y, m.Rect.Y), s.Template)
		}
		if u.Width != nil || u.Height != nil {
			m = m.Resize(valueOr(u.Width, m.Rect.Width), valueOr(u.Height, m.Rect.Height), s.Template)
		}
		if u.Style != nil {
			m = m.WithStyle(*u.Style)
		}

		s.Mappings[i] = m
		fm = m
		return nil
	})
	return fm, err
}

func (st *Store) DeleteMapping(id, fieldID string) (Session, error) {
	return st.update(id, func(s *Session) error {
		i := indexOfMapping(s.Mappings, fieldID)
		if i < 0 {
			return ErrMappingNotFound
		}
		s.Mappings = append(s.Mappings[:i:i], s.Mappings[i+1:]...)
		return nil
	})
}

func (st *Store) ClearMappings(id string) (Session, error) {
	return st.update(id, func(s *Session) error {
		s.Mappings = []autocert.FieldMapping{}
		return nil
	})
}

// SetCSV replaces any previous upload and stores its validation against the roster.
func (st *Store) SetCSV(id string, upload *autocert.CSVUpload) (autocert.ValidationResult, error) {
	var result autocert.ValidationResult
	_, err := st.update(id, func(s *Session) error {
		result = autocert.ValidateCSV(upload.Rows, upload.Headers, s.Students)
		s.CSV = upload
		s.Validation = &result
		return nil
	})
	return result, err
}

func (st *Store) ClearCSV(id string) (Session, error) {
	return st.update(id, func(s *Session) error {
		s.CSV = nil
		s.Validation = nil
		return nil
	})
}

// SaveRun keeps the most recent runs of a session and evicts the oldest beyond the limit.
func (st *Store) SaveRun(id string, result *autocert.GenerationResult) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	e.runs[result.ID] = result
	e.session.LastRunID = result.ID

	for len(e.runs) > st.maxRuns {
		var oldest *autocert.GenerationResult
		for _, r := range e.runs {
			if oldest == nil || r.FinishedAt.Before(oldest.FinishedAt) {
				oldest = r
			}
		}
		delete(e.runs, oldest.ID)
	}
	return nil
}

func (st *Store) Run(id, runID string) (*autocert.GenerationResult, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	r, ok := e.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

func indexOfMapping(mappings []autocert.FieldMapping, fieldID string) int {
	for i, m := range mappings {
		if m.ID == fieldID {
			return i
		}
	}
	return -1
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
