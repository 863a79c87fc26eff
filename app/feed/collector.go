package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/summarizer"
)

const maxResponseSize = 10 << 20

type Summarizer interface {
	Summarize(ctx context.Context, body, title string) summarizer.Result
}

var _ collector.Collector = (*Collector)(nil)

// Collector gathers recent entries from every enabled feed configuration.
type Collector struct {
	configCache *ConfigCache
	httpClient  *http.Client
	parser      *Parser
	filterer    *Filterer
	extractor   *ContentExtractor
	summarizer  Summarizer
	limiter     *rate.Limiter
	userAgent   string
	now         func() time.Time
}

// NewCollector builds a feed collector. feedRate bounds how many feeds are
// fetched per second; summarizer may be nil.
func NewCollector(configCache *ConfigCache, httpClient *http.Client, summarizer Summarizer,
	userAgent string, feedRate rate.Limit) *Collector {
	if feedRate <= 0 {
		feedRate = rate.Inf
	}

	return &Collector{
		configCache: configCache,
		httpClient:  httpClient,
		parser:      NewParser(),
		filterer:    NewFilterer(),
		extractor:   NewContentExtractor(),
		summarizer:  summarizer,
		limiter:     rate.NewLimiter(feedRate, 1),
		userAgent:   userAgent,
		now:         time.Now,
	}
}

func (c *Collector) Source() content.Source {
	return content.SourceRSS
}

func (c *Collector) Enabled() bool {
	return len(c.configCache.GetEnabledConfigs()) > 0
}

func (c *Collector) Collect(ctx context.Context, req collector.Request) collector.Result {
	configs := c.configCache.GetEnabledConfigs()

	var items []content.RawItem
	failed := 0

	for _, feedConfig := range configs {
		if err := c.limiter.Wait(ctx); err != nil {
			slog.Warn("Feed collection interrupted", "feed", feedConfig.Name, "error", err)
			break
		}

		entries, err := c.collectFeed(ctx, feedConfig, req)
		if err != nil {
			slog.Error("Failed to collect feed", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
			failed++
			continue
		}

		for _, entry := range entries {
			items = append(items, entry)
		}
	}

	slog.Info("Feed collection completed", "feeds", len(configs), "failed", failed, "entries", len(items))

	if len(items) == 0 && ctx.Err() != nil {
		return collector.Failed(c.Source(), ctx.Err())
	}

	return collector.OK(c.Source(), items)
}

func (c *Collector) collectFeed(ctx context.Context, feedConfig *Config, req collector.Request) ([]content.FeedEntry, error) {
	timeout := time.Duration(feedConfig.Settings.Timeout) * time.Second

	data, err := c.fetch(ctx, feedConfig.URL, timeout, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := c.parser.Run(data)
	if err != nil {
		return nil, err
	}

	items = c.filterer.Run(items, feedConfig)

	limit := feedConfig.Settings.MaxItems
	if req.Limit > 0 && (limit <= 0 || req.Limit < limit) {
		limit = req.Limit
	}

	now := c.now().UTC()
	entries := make([]content.FeedEntry, 0, len(items))
	outside := 0

	for _, item := range items {
		if limit > 0 && len(entries) >= limit {
			break
		}

		if !req.Window.Contains(entryTime(item, now)) {
			outside++
			continue
		}

		body := item.Body()
		if body == "" && feedConfig.Settings.ExtractContent && item.Link != "" {
			body = c.extractBody(ctx, item.Link, timeout)
		}

		entry := content.FeedEntry{
			FeedName:     feedConfig.Name,
			FeedTitle:    cmp.Or(metadata.Title, feedConfig.Title),
			GUID:         item.GUID,
			Link:         item.Link,
			Title:        item.Title,
			Body:         body,
			PublishedAt:  item.PublishedAt,
			UpdatedAt:    item.UpdatedAt,
			RawPublished: item.RawPublished,
		}
		if len(item.Authors) > 0 {
			entry.Author = item.Authors[0]
		}

		if c.summarizer != nil {
			if summary, ok := c.summarizer.Summarize(ctx, body, item.Title).Value(); ok {
				entry.Summary = summary
			}
		}

		entries = append(entries, entry)
	}

	slog.Debug("Feed processed", "feed", feedConfig.Name, "total", len(items), "outside_window", outside, "collected", len(entries))

	return entries, nil
}

// entryTime is the time used for window filtering: published, else updated, else now.
func entryTime(item Item, now time.Time) time.Time {
	if item.PublishedAt != nil {
		return *item.PublishedAt
	}
	if item.UpdatedAt != nil {
		return *item.UpdatedAt
	}
	if t, ok := content.ParseTime(item.RawPublished); ok {
		return t
	}
	return now
}

func (c *Collector) extractBody(ctx context.Context, link string, timeout time.Duration) string {
	data, err := c.fetch(ctx, link, timeout, "text/html")
	if err != nil {
		slog.Warn("Failed to fetch article page", "url", link, "error", err)
		return ""
	}

	body, err := c.extractor.Run(data, link)
	if err != nil {
		slog.Warn("Failed to extract article content", "url", link, "error", err)
		return ""
	}

	return body
}

func (c *Collector) fetch(ctx context.Context, url string, timeout time.Duration, wantContentType string) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout * time.Second
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if wantContentType != "" {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), wantContentType) {
			return nil, fmt.Errorf("unexpected content type: %s", contentType)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
