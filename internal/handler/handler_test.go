package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"crm-api/internal/config"
	"crm-api/internal/event"
	"crm-api/internal/queue"
)

// memCache is an in-memory VersionCache mirroring the redis store's key
// scheme, so tests can observe version bumps and cache hits directly.
type memCache struct {
	mu       sync.Mutex
	versions map[string]int64
	data     map[string]string
	bumps    map[string]int
}

func newMemCache() *memCache {
	return &memCache{
		versions: make(map[string]int64),
		data:     make(map[string]string),
		bumps:    make(map[string]int),
	}
}

func (m *memCache) version(entity string) int64 {
	if v := m.versions[entity]; v > 0 {
		return v
	}
	m.versions[entity] = 1
	return 1
}

func (m *memCache) Bump(_ context.Context, entity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[entity] = m.version(entity) + 1
	m.bumps[entity]++
}

func (m *memCache) ListKey(_ context.Context, entity string, page, limit int, search, sortBy string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:v%d:page=%d:limit=%d:search=%s", entity, m.version(entity), page, limit, search)
	if sortBy != "" {
		key += ":sort=" + sortBy
	}
	return key, nil
}

func (m *memCache) GetJSON(_ context.Context, key string, out any) bool {
	m.mu.Lock()
	s, found := m.data[key]
	m.mu.Unlock()
	if !found {
		return false
	}
	return json.Unmarshal([]byte(s), out) == nil
}

func (m *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.data[key] = string(b)
	m.mu.Unlock()
}

// bumpCount reports how many times an entity's counter was bumped.
func (m *memCache) bumpCount(entity string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bumps[entity]
}

func testConfig() config.Config {
	return config.Config{BcryptCost: 4} // min cost keeps hashing fast in tests
}

// newMockDB returns a mocked *sql.DB for building repositories against.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newContext builds an echo context plus the recorder capturing its
// response.
func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formReq(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// multipartReq builds a multipart request with form fields and an
// optional profileImage file part.
func multipartReq(t *testing.T, method, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("profileImage", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

// decodeBody parses the response envelope.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type fakeQueue struct {
	jobs []queue.Job
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

type fakeHost struct {
	destroyed chan string
}

func newFakeHost() *fakeHost {
	return &fakeHost{destroyed: make(chan string, 4)}
}

func (f *fakeHost) Upload(context.Context, []byte) (string, error) { return "", nil }

func (f *fakeHost) Destroy(_ context.Context, publicID string) error {
	f.destroyed <- publicID
	return nil
}

type recordingSink struct {
	events []event.Event
}

func (r *recordingSink) Publish(_ context.Context, ev event.Event) {
	r.events = append(r.events, ev)
}
