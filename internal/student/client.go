package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/pkg/autocert"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxRecordSize = 1 << 20

var ErrStudentNotFound = errors.New("student not found")

// Directory resolves roster ids into student records.
type Directory interface {
	FetchMany(ctx context.Context, ids []string) ([]autocert.Student, error)
}

// Client looks students up in the LMS student service.
type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	logger  *zap.SugaredLogger
}

// NewClient builds a client for cfg.URL. cache may be nil.
func NewClient(cfg config.StudentServiceConfig, cache Cache, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		logger:  logger,
	}
}

// FetchMany loads every id concurrently. The first failure cancels the rest and is returned.
// The result keeps the order of ids.
func (c *Client) FetchMany(ctx context.Context, ids []string) ([]autocert.Student, error) {
	students := make([]autocert.Student, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			s, err := c.Fetch(ctx, id)
			if err != nil {
				return err
			}
			students[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) Fetch(ctx context.Context, id string) (autocert.Student, error) {
	raw, err := c.fetchRaw(ctx, id)
	if err != nil {
		return autocert.Student{}, err
	}

	s, err := ToStudent(raw)
	if err != nil {
		return autocert.Student{}, fmt.Errorf("student %s: %w", id, err)
	}
	return s, nil
}

func (c *Client) fetchRaw(ctx context.Context, id string) ([]byte, error) {
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, id)
		if err != nil {
			c.logger.Warnf("Student cache read failed for %s: %v", id, err)
		} else if ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/students/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch student %s: unexpected status %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read student %s: %w", id, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, id, data); err != nil {
			c.logger.Warnf("Student cache write failed for %s: %v", id, err)
		}
	}

	return data, nil
}

// ToStudent maps a raw service record, optionally wrapped in {"data": ...}, to a Student.
func ToStudent(data []byte) (autocert.Student, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return autocert.Student{}, fmt.Errorf("invalid student record: %w", err)
	}
	if inner, ok := record["data"].(map[string]any); ok {
		record = inner
	}

	s := autocert.Student{
		UserID:        firstString(record, "user_id", "id"),
		FullName:      firstString(record, "full_name", "name"),
		Email:         firstString(record, "email"),
		EnrollmentID:  firstString(record, "enrollment_id", "enrollment_number"),
		InstituteName: firstString(record, "institute_name"),
		MobileNumber:  firstString(record, "mobile_number", "phone"),
	}
	if s.UserID == "" {
		return autocert.Student{}, errors.New("record has no user id")
	}

	if dyn, ok := record["dynamic_fields"].(map[string]any); ok && len(dyn) > 0 {
		s.DynamicFields = dyn
	}

	return s, nil
}

func firstString(record map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := record[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
