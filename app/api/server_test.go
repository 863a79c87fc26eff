package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/metrics"
	"github.com/lysyi3m/content-comb/app/tasks"
)

type mockReader struct {
	items      []content.Content
	dates      []database.DateCount
	lastQuery  database.Query
	lastLimit  int
	countError error
}

func (m *mockReader) RecentContent(_ context.Context, q database.Query) ([]content.Content, error) {
	m.lastQuery = q
	return m.items, nil
}

func (m *mockReader) AvailableDates(_ context.Context, limit int) ([]database.DateCount, error) {
	m.lastLimit = limit
	return m.dates, nil
}

func (m *mockReader) Categories(_ context.Context) ([]content.Category, error) {
	return []content.Category{{ID: 1, Name: "Research"}}, nil
}

func (m *mockReader) Count(_ context.Context) (int, error) {
	return len(m.items), m.countError
}

type mockScheduler struct {
	enqueued []tasks.Trigger
	err      error
}

func (m *mockScheduler) Start()                                  {}
func (m *mockScheduler) Stop()                                   {}
func (m *mockScheduler) EnqueueTask(_ tasks.TaskInterface) error { return m.err }
func (m *mockScheduler) EnqueueIngest(trigger tasks.Trigger) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.enqueued = append(m.enqueued, trigger)
	return "task-1", nil
}

func newTestServer(reader *mockReader, scheduler *mockScheduler, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(reader, scheduler, metrics.New(), "https://comb.example.com", "test")
	return NewServer(handler, apiKey)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sampleContent() []content.Content {
	published := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return []content.Content{{
		ID:          "id-1",
		Source:      content.SourceRSS,
		SourceID:    "guid-1",
		Title:       "Model release",
		Body:        "Body",
		URL:         "https://example.com/1",
		PublishedAt: published,
		CollectedAt: published,
	}}
}

func TestGetContent(t *testing.T) {
	reader := &mockReader{items: sampleContent()}
	r := newTestServer(reader, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/api/content?limit=5&source=rss&date=2026-10-15", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}

	var items []content.Content
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "Model release" {
		t.Errorf("Expected one item, got: %+v", items)
	}

	if reader.lastQuery.Limit != 5 || reader.lastQuery.Source != content.SourceRSS {
		t.Errorf("Expected limit 5 and source rss, got: %+v", reader.lastQuery)
	}
	if reader.lastQuery.Day == nil || reader.lastQuery.Day.Format("2006-01-02") != "2026-10-15" {
		t.Errorf("Expected day filter 2026-10-15, got: %v", reader.lastQuery.Day)
	}
}

func TestGetContentDefaultsAndEmpty(t *testing.T) {
	reader := &mockReader{}
	r := newTestServer(reader, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/api/content", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty array, got: %s", rec.Body.String())
	}
	if reader.lastQuery.Limit != database.DefaultContentLimit {
		t.Errorf("Expected default limit %d, got: %d", database.DefaultContentLimit, reader.lastQuery.Limit)
	}
}

func TestGetContentRejectsBadInput(t *testing.T) {
	r := newTestServer(&mockReader{}, &mockScheduler{}, "")

	for _, path := range []string{
		"/api/content?date=15-10-2026",
		"/api/content?source=mastodon",
		"/api/content?limit=abc",
		"/api/content?limit=-1",
	} {
		if rec := perform(r, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got: %d", path, rec.Code)
		}
	}
}

func TestGetDates(t *testing.T) {
	reader := &mockReader{dates: []database.DateCount{{Date: "2026-10-15", Count: 3}}}
	r := newTestServer(reader, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/api/content/dates?limit=7", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if reader.lastLimit != 7 {
		t.Errorf("Expected limit 7, got: %d", reader.lastLimit)
	}
	if !strings.Contains(rec.Body.String(), `"date":"2026-10-15"`) {
		t.Errorf("Expected date in body, got: %s", rec.Body.String())
	}
}

func TestGetCategories(t *testing.T) {
	r := newTestServer(&mockReader{}, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/api/categories", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Research") {
		t.Errorf("Expected Research category, got: %s", rec.Body.String())
	}
}

func TestGetHealth(t *testing.T) {
	r := newTestServer(&mockReader{items: sampleContent()}, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"content":1`) {
		t.Errorf("Expected content count in body, got: %s", rec.Body.String())
	}

	r = newTestServer(&mockReader{countError: errors.New("down")}, &mockScheduler{}, "")
	if rec := perform(r, http.MethodGet, "/health", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 when database fails, got: %d", rec.Code)
	}
}

func TestGetFeed(t *testing.T) {
	reader := &mockReader{items: sampleContent()}
	r := newTestServer(reader, &mockScheduler{}, "")

	rec := perform(r, http.MethodGet, "/feeds/rss", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Expected XML content type, got: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "<title>Model release</title>") {
		t.Errorf("Expected item title in feed, got: %s", rec.Body.String())
	}
	if reader.lastQuery.Source != content.SourceRSS {
		t.Errorf("Expected source filter rss, got: %s", reader.lastQuery.Source)
	}

	if rec := perform(r, http.MethodGet, "/feeds/all", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for all, got: %d", rec.Code)
	}
	if reader.lastQuery.Source != "" {
		t.Errorf("Expected no source filter for all, got: %s", reader.lastQuery.Source)
	}

	if rec := perform(r, http.MethodGet, "/feeds/unknown", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown source, got: %d", rec.Code)
	}
}

func TestCollectRequiresKey(t *testing.T) {
	scheduler := &mockScheduler{}
	r := newTestServer(&mockReader{}, scheduler, "secret")

	if rec := perform(r, http.MethodPost, "/api/collect", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got: %d", rec.Code)
	}
	if rec := perform(r, http.MethodPost, "/api/collect", map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got: %d", rec.Code)
	}

	rec := perform(r, http.MethodPost, "/api/collect", map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got: %d", rec.Code)
	}
	if len(scheduler.enqueued) != 1 || scheduler.enqueued[0] != tasks.TriggerAPI {
		t.Errorf("Expected one API-triggered ingest, got: %v", scheduler.enqueued)
	}
	if !strings.Contains(rec.Body.String(), "task-1") {
		t.Errorf("Expected task id in body, got: %s", rec.Body.String())
	}
}

func TestCollectDisabledWithoutKey(t *testing.T) {
	r := newTestServer(&mockReader{}, &mockScheduler{}, "")

	if rec := perform(r, http.MethodPost, "/api/collect", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without configured key, got: %d", rec.Code)
	}
}

func TestCollectQueueFull(t *testing.T) {
	r := newTestServer(&mockReader{}, &mockScheduler{err: errors.New("task queue is full")}, "secret")

	rec := perform(r, http.MethodPost, "/api/collect", map[string]string{"X-API-Key": "secret"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got: %d", rec.Code)
	}
}

func TestMetricsAndIndex(t *testing.T) {
	r := newTestServer(&mockReader{}, &mockScheduler{}, "")

	perform(r, http.MethodGet, "/api/categories", nil)

	rec := perform(r, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{route="/api/categories",status="200"} 1`) {
		t.Errorf("Expected request counter in metrics, got: %s", rec.Body.String())
	}

	rec = perform(r, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Content Comb") {
		t.Errorf("Expected index response, got: %d %s", rec.Code, rec.Body.String())
	}
}

type stubCache struct{}

func (stubCache) Health(_ context.Context) map[string]any {
	return map[string]any{"status": "healthy", "type": "redis"}
}

func TestGetHealthIncludesCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(&mockReader{}, &mockScheduler{}, nil, "", "test").WithCache(stubCache{})
	r := NewServer(handler, "")

	rec := perform(r, http.MethodGet, "/health", nil)
	if !strings.Contains(rec.Body.String(), `"type":"redis"`) {
		t.Errorf("Expected cache health in body, got: %s", rec.Body.String())
	}
	if rec := perform(r, http.MethodGet, "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected no metrics route without metrics, got: %d", rec.Code)
	}
}
