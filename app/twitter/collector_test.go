package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/content"
)

func testRequest(limit int) collector.Request {
	return collector.Request{Window: collector.NewWindow(time.Now(), 7), Limit: limit}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func TestCollectorHashtagSearch(t *testing.T) {
	var authHeader, query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		query = r.URL.Query().Get("query")
		if r.URL.Path != "/tweets/search/recent" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"data": []map[string]any{
				{"id": "1", "text": "First", "author_id": "u1", "created_at": "2026-10-15T10:00:00Z",
					"public_metrics": map[string]any{"like_count": 5, "retweet_count": 2, "reply_count": 1}},
				{"id": "2", "text": "Second", "author_id": "u1", "created_at": "2026-10-16T10:00:00Z"},
			},
			"includes": map[string]any{
				"users": []map[string]any{{"id": "u1", "username": "alice", "name": "Alice"}},
			},
			"meta": map[string]any{"result_count": 2},
		})
	}))
	defer server.Close()

	c := NewCollector(Config{BearerToken: "token", BaseURL: server.URL, Hashtags: []string{"#ai"}}, http.DefaultClient)

	result := c.Collect(context.Background(), testRequest(10))

	if result.Status != collector.StatusOK {
		t.Fatalf("Expected status ok, got: %s (%v)", result.Status, result.Err)
	}
	if authHeader != "Bearer token" {
		t.Errorf("Expected bearer auth header, got: %s", authHeader)
	}
	if query != "#ai" {
		t.Errorf("Expected query #ai, got: %s", query)
	}
	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 tweets, got: %d", len(result.Items))
	}

	tweet := result.Items[0].(content.Tweet)
	if tweet.Username != "alice" || tweet.DisplayName != "Alice" {
		t.Errorf("Expected author alice/Alice, got: %s/%s", tweet.Username, tweet.DisplayName)
	}
	if tweet.LikeCount != 5 || tweet.RetweetCount != 2 || tweet.ReplyCount != 1 {
		t.Errorf("Expected metrics 5/2/1, got: %d/%d/%d", tweet.LikeCount, tweet.RetweetCount, tweet.ReplyCount)
	}
	if result.Simulated {
		t.Error("Expected live result not to be simulated")
	}
}

func TestCollectorPaginatesUntilLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			if r.URL.Query().Get("next_token") != "" {
				t.Error("Expected no next_token on first page")
			}
			writeJSON(t, w, map[string]any{
				"data": []map[string]any{{"id": "1", "text": "a"}, {"id": "2", "text": "b"}},
				"meta": map[string]any{"next_token": "page2"},
			})
			return
		}
		if r.URL.Query().Get("next_token") != "page2" {
			t.Errorf("Expected next_token page2, got: %s", r.URL.Query().Get("next_token"))
		}
		writeJSON(t, w, map[string]any{
			"data": []map[string]any{{"id": "3", "text": "c"}, {"id": "4", "text": "d"}},
			"meta": map[string]any{"next_token": "page3"},
		})
	}))
	defer server.Close()

	c := NewCollector(Config{BearerToken: "token", BaseURL: server.URL, Hashtags: []string{"#ai"}}, http.DefaultClient)

	result := c.Collect(context.Background(), testRequest(3))

	if calls != 2 {
		t.Errorf("Expected 2 page requests, got: %d", calls)
	}
	if len(result.Items) != 3 {
		t.Errorf("Expected 3 tweets, got: %d", len(result.Items))
	}
}

func TestCollectorAccountsDedupeAndTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/by/username/OpenAI":
			writeJSON(t, w, map[string]any{"data": map[string]any{"id": "42", "username": "OpenAI", "name": "OpenAI"}})
		case r.URL.Path == "/users/42/tweets":
			if r.URL.Query().Get("exclude") != "retweets,replies" {
				t.Errorf("Expected retweets and replies excluded, got: %s", r.URL.Query().Get("exclude"))
			}
			writeJSON(t, w, map[string]any{
				"data": []map[string]any{{"id": "7", "text": "timeline"}, {"id": "8", "text": "other"}},
			})
		case r.URL.Path == "/tweets/search/recent":
			writeJSON(t, w, map[string]any{"data": []map[string]any{{"id": "7", "text": "timeline"}}})
		default:
			t.Errorf("Unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewCollector(Config{
		BearerToken: "token",
		BaseURL:     server.URL,
		Hashtags:    []string{"#ai"},
		Accounts:    []string{"OpenAI"},
	}, http.DefaultClient)

	result := c.Collect(context.Background(), testRequest(10))

	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 unique tweets, got: %d", len(result.Items))
	}
	second := result.Items[1].(content.Tweet)
	if second.ID != "8" || second.Account != "OpenAI" {
		t.Errorf("Expected tweet 8 tagged with account OpenAI, got: %s/%s", second.ID, second.Account)
	}
}

func TestCollectorFailingQueryIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "broken") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, map[string]any{"data": []map[string]any{{"id": "1", "text": "ok"}}})
	}))
	defer server.Close()

	c := NewCollector(Config{BearerToken: "token", BaseURL: server.URL, Hashtags: []string{"broken", "#ai"}}, http.DefaultClient)

	result := c.Collect(context.Background(), testRequest(10))

	if result.Status != collector.StatusOK {
		t.Errorf("Expected status ok, got: %s", result.Status)
	}
	if len(result.Items) != 1 {
		t.Errorf("Expected 1 tweet, got: %d", len(result.Items))
	}
}

func TestCollectorWithoutTokenIsDisabled(t *testing.T) {
	c := NewCollector(Config{}, http.DefaultClient)

	if c.Enabled() {
		t.Error("Expected collector without token to be disabled")
	}
	if result := c.Collect(context.Background(), testRequest(10)); result.Status != collector.StatusDisabled {
		t.Errorf("Expected status disabled, got: %s", result.Status)
	}
}

func TestCollectorSimulatedFallback(t *testing.T) {
	c := NewCollector(Config{Simulate: true, Accounts: []string{"OpenAI", "DeepMind"}}, http.DefaultClient)

	if !c.Enabled() {
		t.Error("Expected simulating collector to be enabled")
	}

	result := c.Collect(context.Background(), testRequest(4))

	if !result.Simulated {
		t.Error("Expected simulated result")
	}
	if len(result.Items) != 4 {
		t.Fatalf("Expected 4 simulated tweets, got: %d", len(result.Items))
	}

	tweet := result.Items[1].(content.Tweet)
	if tweet.ID != "simulated-twitter-1" {
		t.Errorf("Expected id simulated-twitter-1, got: %s", tweet.ID)
	}
	if tweet.Account != "DeepMind" || !tweet.Simulated {
		t.Errorf("Expected simulated DeepMind tweet, got: %+v", tweet)
	}

	item, err := content.ToContent(tweet, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if item.URL != "https://twitter.com/DeepMind/status/simulated-twitter-1" {
		t.Errorf("Expected account status URL, got: %s", item.URL)
	}
}
