package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

type Config struct {
	Enabled   bool
	APIKey    string
	Endpoint  string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Rate      rate.Limit // calls per second to the provider
}

type Outcome string

const (
	OutcomeSummarized Outcome = "summarized"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

type Result struct {
	Summary string
	Outcome Outcome
	Reason  string
}

func (r Result) Value() (string, bool) {
	return r.Summary, r.Outcome == OutcomeSummarized
}

// SummaryCache stores summaries across runs, keyed by title and cleaned body.
type SummaryCache interface {
	GetSummary(ctx context.Context, title, body string) (string, bool, error)
	SetSummary(ctx context.Context, title, body, summary string) error
}

type Summarizer struct {
	enabled   bool
	client    *ChatClient
	limiter   *rate.Limiter
	cache     SummaryCache
	onOutcome func(Outcome)
}

func New(cfg Config) *Summarizer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	limit := cfg.Rate
	if limit <= 0 {
		limit = rate.Inf
	}

	s := &Summarizer{
		enabled: cfg.Enabled && cfg.APIKey != "",
		client:  NewChatClient(endpoint, model, cfg.APIKey, maxTokens, cfg.Timeout),
		limiter: rate.NewLimiter(limit, 1),
	}

	if cfg.Enabled && cfg.APIKey == "" {
		slog.Warn("Summarization disabled: no API key configured")
	}

	return s
}

func (s *Summarizer) WithCache(cache SummaryCache) *Summarizer {
	s.cache = cache
	return s
}

func (s *Summarizer) WithObserver(fn func(Outcome)) *Summarizer {
	s.onOutcome = fn
	return s
}

func (s *Summarizer) Enabled() bool {
	return s != nil && s.enabled
}

// Summarize produces a short summary of body. It never fails the caller:
// every problem is reported as a skipped or failed Result.
func (s *Summarizer) Summarize(ctx context.Context, body, title string) Result {
	result := s.summarize(ctx, body, title)
	if s != nil && s.onOutcome != nil {
		s.onOutcome(result.Outcome)
	}
	return result
}

func (s *Summarizer) summarize(ctx context.Context, body, title string) Result {
	if !s.Enabled() {
		return skipped("disabled")
	}

	if utf8.RuneCountInString(strings.TrimSpace(body)) < MinContentLength {
		return skipped("content too short")
	}

	cleaned := Clean(body)
	if cleaned == "" {
		return skipped("content empty after cleaning")
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetSummary(ctx, title, cleaned)
		if err != nil {
			slog.Warn("Summary cache lookup failed", "title", title, "error", err)
		} else if ok {
			slog.Debug("Summary served from cache", "title", title)
			return Result{Summary: cached, Outcome: OutcomeSummarized}
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return failed(fmt.Errorf("rate limiter: %w", err))
	}

	summary, err := s.client.Complete(ctx, BuildPrompt(title, cleaned))
	if err != nil {
		slog.Error("Failed to generate summary", "title", title, "error", err)
		return failed(err)
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, title, cleaned, summary); err != nil {
			slog.Warn("Failed to cache summary", "title", title, "error", err)
		}
	}

	slog.Debug("Summary generated", "title", title, "length", len(summary))

	return Result{Summary: summary, Outcome: OutcomeSummarized}
}

func BuildPrompt(title, cleaned string) string {
	return fmt.Sprintf("Please provide a concise summary of the following AI-related article in 2-3 sentences. "+
		"Focus on the key points and main insights.\n\nTitle: %s\n\nContent: %s\n\nSummary:", title, cleaned)
}

func skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

func failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Reason: err.Error()}
}
