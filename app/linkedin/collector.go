package linkedin

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/content"
)

// maxPages bounds pagination when the API keeps returning the same page.
const maxPages = 10

type Config struct {
	APIKey      string
	BaseURL     string
	Companies   []string
	Influencers []string
	Keywords    []string
	Simulate    bool
	RequestRate rate.Limit
	UserAgent   string
}

var _ collector.Collector = (*Collector)(nil)

type Collector struct {
	client   *Client
	queries  []string
	live     bool
	simulate bool
	now      func() time.Time
}

func NewCollector(cfg Config, httpClient *http.Client) *Collector {
	queries := make([]string, 0, len(cfg.Companies)+len(cfg.Influencers)+len(cfg.Keywords))
	queries = append(queries, cfg.Companies...)
	queries = append(queries, cfg.Influencers...)
	queries = append(queries, cfg.Keywords...)

	return &Collector{
		client:   NewClient(cfg.BaseURL, cfg.APIKey, cfg.UserAgent, httpClient, cfg.RequestRate),
		queries:  queries,
		live:     cfg.APIKey != "",
		simulate: cfg.Simulate,
		now:      time.Now,
	}
}

func (c *Collector) Source() content.Source {
	return content.SourceLinkedIn
}

func (c *Collector) Enabled() bool {
	return c.live || c.simulate
}

func (c *Collector) Collect(ctx context.Context, req collector.Request) collector.Result {
	if !c.live {
		if !c.simulate {
			return collector.Disabled(c.Source())
		}
		slog.Warn("No API key configured, serving simulated posts", "source", c.Source())
		return collector.Simulated(c.Source(), Simulate(req.Limit, c.now()))
	}

	seen := make(map[string]bool)
	var items []content.RawItem

	for _, query := range c.queries {
		posts, err := c.search(ctx, query, req)
		if err != nil {
			slog.Error("Failed to search posts", "query", query, "error", err)
		}

		for _, p := range posts {
			key := postKey(p)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, p)
		}
	}

	slog.Info("Post collection completed", "queries", len(c.queries), "posts", len(items))

	if len(items) == 0 {
		if ctx.Err() != nil {
			return collector.Failed(c.Source(), ctx.Err())
		}
		if c.simulate {
			slog.Warn("Live search returned no posts, serving simulated posts", "source", c.Source())
			return collector.Simulated(c.Source(), Simulate(req.Limit, c.now()))
		}
	}

	return collector.OK(c.Source(), items)
}

// search pages through one query, keeping posts inside the window.
// Posts gathered before an error are still returned.
func (c *Collector) search(ctx context.Context, query string, req collector.Request) ([]content.LinkedInPost, error) {
	var kept []content.LinkedInPost
	pageSeen := make(map[string]bool)
	start := 0

	for page := 0; page < maxPages && len(kept) < req.Limit; page++ {
		posts, err := c.client.SearchPosts(ctx, query, start)
		if err != nil {
			return kept, err
		}

		fresh := 0
		for _, p := range posts {
			key := postKey(p)
			if pageSeen[key] {
				continue
			}
			pageSeen[key] = true
			fresh++

			if !inWindow(p, req.Window) || len(kept) >= req.Limit {
				continue
			}
			kept = append(kept, p)
		}

		if fresh == 0 {
			break
		}
		start += len(posts)
	}

	return kept, nil
}

func postKey(p content.LinkedInPost) string {
	return cmp.Or(p.ID, p.URL)
}

// inWindow keeps posts whose timestamp cannot be parsed.
func inWindow(p content.LinkedInPost, w collector.Window) bool {
	t, ok := content.ParseTime(p.CreatedAt)
	if !ok {
		return true
	}
	return w.Contains(t)
}
