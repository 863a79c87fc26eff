package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"
)

type capturedRequest struct {
	auth string
	body chatRequest
}

func newProvider(t *testing.T, status int, answer string, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Expected JSON request body, got: %v", err)
		}
		if captured != nil {
			*captured = append(*captured, capturedRequest{auth: r.Header.Get("Authorization"), body: req})
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": answer}},
				},
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestSummarizer(endpoint string) *Summarizer {
	return New(Config{
		Enabled:   true,
		APIKey:    "test-key",
		Endpoint:  endpoint,
		Model:     "test-model",
		MaxTokens: 120,
		Rate:      rate.Inf,
	})
}

func promptContent(prompt string) string {
	start := strings.Index(prompt, "Content: ") + len("Content: ")
	end := strings.Index(prompt, "\n\nSummary:")
	return prompt[start:end]
}

func TestSummarizeSuccess(t *testing.T) {
	var captured []capturedRequest
	server := newProvider(t, http.StatusOK, "  A concise summary.  ", &captured)

	s := newTestSummarizer(server.URL)
	body := "<p>OpenAI has announced the release of a <strong>new model</strong> with better reasoning &amp; speed.</p>"
	result := s.Summarize(context.Background(), body, "New model")

	summary, ok := result.Value()
	if !ok {
		t.Fatalf("Expected summary, got outcome: %s (%s)", result.Outcome, result.Reason)
	}
	if summary != "A concise summary." {
		t.Errorf("Expected trimmed summary, got: %q", summary)
	}

	if len(captured) != 1 {
		t.Fatalf("Expected 1 provider call, got: %d", len(captured))
	}
	req := captured[0]
	if req.auth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got: %s", req.auth)
	}
	if req.body.Model != "test-model" || req.body.MaxTokens != 120 {
		t.Errorf("Unexpected model/max_tokens: %s/%d", req.body.Model, req.body.MaxTokens)
	}
	if req.body.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got: %v", req.body.Temperature)
	}
	if len(req.body.Messages) != 1 || req.body.Messages[0].Role != "user" {
		t.Fatalf("Expected a single user message, got: %+v", req.body.Messages)
	}
	prompt := req.body.Messages[0].Content
	if !strings.Contains(prompt, "Title: New model") {
		t.Errorf("Expected title in prompt, got: %s", prompt)
	}
	if strings.Contains(prompt, "<strong>") {
		t.Errorf("Expected markup stripped from prompt, got: %s", prompt)
	}
	if !strings.Contains(prompt, "better reasoning & speed.") {
		t.Errorf("Expected entities decoded in prompt, got: %s", prompt)
	}
}

func TestSummarizeSkipsShortBody(t *testing.T) {
	var captured []capturedRequest
	server := newProvider(t, http.StatusOK, "unused", &captured)

	result := newTestSummarizer(server.URL).Summarize(context.Background(), "ten chars!", "Short")

	if _, ok := result.Value(); ok {
		t.Error("Expected no summary for a 10 character body")
	}
	if result.Outcome != OutcomeSkipped {
		t.Errorf("Expected skipped outcome, got: %s", result.Outcome)
	}
	if len(captured) != 0 {
		t.Errorf("Expected no provider call, got: %d", len(captured))
	}
}

func TestSummarizeTruncatesLongBody(t *testing.T) {
	var captured []capturedRequest
	server := newProvider(t, http.StatusOK, "Summary.", &captured)

	body := strings.Repeat("a", 3000)
	result := newTestSummarizer(server.URL).Summarize(context.Background(), body, "Long")

	if result.Outcome != OutcomeSummarized {
		t.Fatalf("Expected summarized outcome, got: %s", result.Outcome)
	}
	if len(captured) != 1 {
		t.Fatalf("Expected 1 provider call, got: %d", len(captured))
	}
	sent := promptContent(captured[0].body.Messages[0].Content)
	if len(sent) != MaxContentLength {
		t.Errorf("Expected %d characters sent, got: %d", MaxContentLength, len(sent))
	}
}

func TestSummarizeProviderError(t *testing.T) {
	server := newProvider(t, http.StatusInternalServerError, "", nil)

	result := newTestSummarizer(server.URL).Summarize(context.Background(), strings.Repeat("word ", 30), "Broken")

	if _, ok := result.Value(); ok {
		t.Error("Expected no summary on HTTP 500")
	}
	if result.Outcome != OutcomeFailed {
		t.Errorf("Expected failed outcome, got: %s", result.Outcome)
	}
}

func TestSummarizeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	result := newTestSummarizer(server.URL).Summarize(context.Background(), strings.Repeat("word ", 30), "Odd")

	if result.Outcome != OutcomeFailed {
		t.Errorf("Expected failed outcome, got: %s", result.Outcome)
	}
}

func TestSummarizeDisabled(t *testing.T) {
	s := New(Config{Enabled: true})
	if s.Enabled() {
		t.Error("Expected summarizer without API key to be disabled")
	}

	result := s.Summarize(context.Background(), strings.Repeat("word ", 30), "Title")
	if result.Outcome != OutcomeSkipped {
		t.Errorf("Expected skipped outcome, got: %s", result.Outcome)
	}

	var nilSummarizer *Summarizer
	if nilSummarizer.Summarize(context.Background(), "body", "title").Outcome != OutcomeSkipped {
		t.Error("Expected nil summarizer to skip")
	}
}

type memoryCache struct {
	entries map[string]string
	gets    int
}

func (m *memoryCache) GetSummary(_ context.Context, title, body string) (string, bool, error) {
	m.gets++
	v, ok := m.entries[title+"|"+body]
	return v, ok, nil
}

func (m *memoryCache) SetSummary(_ context.Context, title, body, summary string) error {
	m.entries[title+"|"+body] = summary
	return nil
}

func TestSummarizeUsesCache(t *testing.T) {
	var captured []capturedRequest
	server := newProvider(t, http.StatusOK, "Cached summary.", &captured)

	cache := &memoryCache{entries: make(map[string]string)}
	s := newTestSummarizer(server.URL).WithCache(cache)
	body := strings.Repeat("token ", 20)

	first := s.Summarize(context.Background(), body, "Same")
	second := s.Summarize(context.Background(), body, "Same")

	if first.Summary != "Cached summary." || second.Summary != "Cached summary." {
		t.Errorf("Expected both summaries to match, got: %q %q", first.Summary, second.Summary)
	}
	if len(captured) != 1 {
		t.Errorf("Expected a single provider call, got: %d", len(captured))
	}
	if cache.gets != 2 {
		t.Errorf("Expected 2 cache lookups, got: %d", cache.gets)
	}
}

func TestSummarizeBatch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer server.Close()

	var outcomes []Outcome
	s := newTestSummarizer(server.URL).WithObserver(func(o Outcome) { outcomes = append(outcomes, o) })

	long := strings.Repeat("lorem ipsum ", 10)
	result := s.SummarizeBatch(context.Background(), []Article{
		{ID: "a", Title: "A", Body: long},
		{ID: "b", Title: "B", Body: long},
		{ID: "c", Title: "C", Body: "short"},
		{ID: "d", Title: "D", Body: long},
	})

	if result.Attempted != 4 {
		t.Errorf("Expected 4 attempted, got: %d", result.Attempted)
	}
	if result.Succeeded != 2 {
		t.Errorf("Expected 2 succeeded, got: %d", result.Succeeded)
	}
	if _, ok := result.Summaries["b"]; ok {
		t.Error("Expected failed article to be omitted")
	}
	if _, ok := result.Summaries["c"]; ok {
		t.Error("Expected skipped article to be omitted")
	}
	if result.Summaries["d"] != "ok" {
		t.Errorf("Expected summary for d, got: %q", result.Summaries["d"])
	}
	if len(outcomes) != 4 {
		t.Errorf("Expected 4 observed outcomes, got: %d", len(outcomes))
	}
}

func TestClean(t *testing.T) {
	dirty := `
    <p>This is a <strong>test article</strong> with HTML tags.</p>
    <div>It contains &amp; HTML entities.</div>
    <img src="test.jpg" alt="Test image" />

    Multiple    spaces    and

    line breaks should be cleaned up.
    `

	cleaned := Clean(dirty)

	expected := "This is a test article with HTML tags. It contains & HTML entities. Multiple spaces and line breaks should be cleaned up."
	if cleaned != expected {
		t.Errorf("Expected %q, got: %q", expected, cleaned)
	}

	if got := Clean(strings.Repeat("é", 2500)); len([]rune(got)) != MaxContentLength {
		t.Errorf("Expected truncation to %d runes, got: %d", MaxContentLength, len([]rune(got)))
	}
}
