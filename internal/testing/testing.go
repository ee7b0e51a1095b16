// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/local2stream/internal/models"
)

// MockCatalog is a scripted test double for [services.Catalog].
//
// Searches consult SearchFunc when set, otherwise Results keyed by query. Every call is counted and the
// number of concurrent calls is tracked so tests can assert on the in-flight cap.
type MockCatalog struct {
	SearchFunc func(ctx context.Context, q models.Query, call int) ([]models.CandidateTrack, error)
	Results    map[models.Query][]models.CandidateTrack
	AddFunc    func(ctx context.Context, playlistID string, c models.CandidateTrack) error
	Delay      time.Duration // held inside each call, interrupted by ctx
	OnCall     func()        // invoked at the start of every search or add

	mu          sync.Mutex
	searches    int
	adds        int
	inFlight    int
	maxInFlight int
	queries     []models.Query
	added       []string
	created     []string
}

// NewMockCatalog returns a catalog that answers from results.
func NewMockCatalog(results map[models.Query][]models.CandidateTrack) *MockCatalog {
	if results == nil {
		results = map[models.Query][]models.CandidateTrack{}
	}
	return &MockCatalog{Results: results}
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) Search(ctx context.Context, q models.Query, limit int) ([]models.CandidateTrack, error) {
	m.mu.Lock()
	m.searches++
	call := m.searches
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	defer m.enter()()
	if err := m.hold(ctx); err != nil {
		return nil, err
	}

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q, call)
	}
	results := m.Results[q]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockCatalog) AddTrack(ctx context.Context, playlistID string, c models.CandidateTrack) error {
	m.mu.Lock()
	m.adds++
	m.mu.Unlock()

	defer m.enter()()
	if err := m.hold(ctx); err != nil {
		return err
	}

	if m.AddFunc != nil {
		if err := m.AddFunc(ctx, playlistID, c); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.added = append(m.added, c.ID)
	m.mu.Unlock()
	return nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, name)
	return "mock-playlist", nil
}

// enter marks a call in flight and returns the matching exit.
func (m *MockCatalog) enter() func() {
	if m.OnCall != nil {
		m.OnCall()
	}
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}
}

func (m *MockCatalog) hold(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.Delay):
		return nil
	}
}

// Searches returns the number of Search calls.
func (m *MockCatalog) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

// Adds returns the number of AddTrack calls, failed ones included.
func (m *MockCatalog) Adds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adds
}

// MaxInFlight returns the highest number of concurrent calls observed.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Queries returns every search query in call order.
func (m *MockCatalog) Queries() []models.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Query(nil), m.queries...)
}

// Added returns the candidate IDs successfully added.
func (m *MockCatalog) Added() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added...)
}

// Created returns the names of playlists created.
func (m *MockCatalog) Created() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile creates path and its parent directories with content.
func MustWriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
