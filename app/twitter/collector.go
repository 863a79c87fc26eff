package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/content"
)

type Config struct {
	BearerToken string
	BaseURL     string
	Hashtags    []string
	Accounts    []string
	Simulate    bool // serve a tagged simulated dataset when no token is configured
	RequestRate rate.Limit
	UserAgent   string
}

var _ collector.Collector = (*Collector)(nil)

type Collector struct {
	client   *Client
	hashtags []string
	accounts []string
	live     bool
	simulate bool
	now      func() time.Time
}

func NewCollector(cfg Config, httpClient *http.Client) *Collector {
	return &Collector{
		client:   NewClient(cfg.BaseURL, cfg.BearerToken, cfg.UserAgent, httpClient, cfg.RequestRate),
		hashtags: cfg.Hashtags,
		accounts: cfg.Accounts,
		live:     cfg.BearerToken != "",
		simulate: cfg.Simulate,
		now:      time.Now,
	}
}

func (c *Collector) Source() content.Source {
	return content.SourceTwitter
}

func (c *Collector) Enabled() bool {
	return c.live || c.simulate
}

func (c *Collector) Collect(ctx context.Context, req collector.Request) collector.Result {
	if !c.live {
		if !c.simulate {
			return collector.Disabled(c.Source())
		}
		slog.Warn("No bearer token configured, serving simulated tweets", "source", c.Source())
		return collector.Simulated(c.Source(), Simulate(c.accounts, req.Limit, c.now()))
	}

	seen := make(map[string]bool)
	var items []content.RawItem

	add := func(tweets []content.Tweet) {
		for _, t := range tweets {
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			items = append(items, t)
		}
	}

	for _, hashtag := range c.hashtags {
		tweets, err := c.searchHashtag(ctx, hashtag, req)
		if err != nil {
			slog.Error("Failed to search tweets", "hashtag", hashtag, "error", err)
		}
		add(tweets)
	}

	for _, account := range c.accounts {
		tweets, err := c.accountTimeline(ctx, account, req)
		if err != nil {
			slog.Error("Failed to collect account tweets", "account", account, "error", err)
		}
		add(tweets)
	}

	slog.Info("Tweet collection completed", "hashtags", len(c.hashtags), "accounts", len(c.accounts), "tweets", len(items))

	if len(items) == 0 && ctx.Err() != nil {
		return collector.Failed(c.Source(), ctx.Err())
	}

	return collector.OK(c.Source(), items)
}

// searchHashtag pages through recent search results until limit or exhaustion.
// Tweets gathered before an error are still returned.
func (c *Collector) searchHashtag(ctx context.Context, hashtag string, req collector.Request) ([]content.Tweet, error) {
	var tweets []content.Tweet
	token := ""

	for {
		page, err := c.client.SearchRecent(ctx, hashtag, req.Window.Since, req.Limit-len(tweets), token)
		if err != nil {
			return tweets, err
		}

		for _, t := range page.Tweets {
			if len(tweets) >= req.Limit {
				break
			}
			tweets = append(tweets, toTweet(t, page.Users[t.AuthorID], ""))
		}

		if len(tweets) >= req.Limit || page.NextToken == "" || len(page.Tweets) == 0 {
			return tweets, nil
		}
		token = page.NextToken
	}
}

func (c *Collector) accountTimeline(ctx context.Context, account string, req collector.Request) ([]content.Tweet, error) {
	user, err := c.client.UserByUsername(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	var tweets []content.Tweet
	token := ""

	for {
		page, err := c.client.UserTweets(ctx, user.ID, req.Window.Since, req.Limit-len(tweets), token)
		if err != nil {
			return tweets, err
		}

		for _, t := range page.Tweets {
			if len(tweets) >= req.Limit {
				break
			}
			tweets = append(tweets, toTweet(t, user, account))
		}

		if len(tweets) >= req.Limit || page.NextToken == "" || len(page.Tweets) == 0 {
			return tweets, nil
		}
		token = page.NextToken
	}
}

func toTweet(t Tweet, author User, account string) content.Tweet {
	return content.Tweet{
		ID:              t.ID,
		Text:            t.Text,
		AuthorID:        t.AuthorID,
		Username:        author.Username,
		DisplayName:     author.Name,
		ProfileImageURL: author.ProfileImageURL,
		CreatedAt:       t.CreatedAt,
		LikeCount:       t.PublicMetrics.LikeCount,
		RetweetCount:    t.PublicMetrics.RetweetCount,
		ReplyCount:      t.PublicMetrics.ReplyCount,
		Account:         account,
	}
}
