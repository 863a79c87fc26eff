package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/content-comb/app/content"
)

const (
	DefaultBaseURL = "https://api.lix-it.com/v1/li/linkedin/search/posts"

	searchResultsURL = "https://www.linkedin.com/search/results/content/"
	likeReaction     = "REACTION_TYPE_LIKE"
)

// timestamp accepts either a string or epoch milliseconds.
type timestamp string

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = timestamp(s)
		return nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	*t = timestamp(time.UnixMilli(ms).UTC().Format(time.RFC3339))
	return nil
}

type reaction struct {
	ReactionType string `json:"reactionType"`
	Count        int64  `json:"count"`
}

type post struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	EmbeddedObject struct {
		Title string `json:"title"`
	} `json:"embeddedObject"`
	Actor struct {
		Name  string `json:"name"`
		URL   string `json:"url"`
		Image string `json:"image"`
	} `json:"actor"`
	NumReactions []reaction `json:"numReactions"`
	CommentCount int64      `json:"commentCount"`
	RepostCount  int64      `json:"repostCount"`
	CreatedAt    timestamp  `json:"createdAt"`
	URL          string     `json:"url"`
}

type legacyPost struct {
	URN        string `json:"urn"`
	Commentary struct {
		Text string `json:"text"`
	} `json:"commentary"`
	SocialDetail struct {
		TotalReactions int64 `json:"totalReactions"`
		Comments       int64 `json:"comments"`
		TotalShares    int64 `json:"totalShares"`
	} `json:"socialDetail"`
	Author struct {
		Name          string `json:"name"`
		NavigationURL string `json:"navigationUrl"`
	} `json:"author"`
	PostedAt      timestamp `json:"postedAt"`
	NavigationURL string    `json:"navigationUrl"`
}

type searchResponse struct {
	Posts []post `json:"posts"`
	Data  struct {
		Elements []struct {
			Post *legacyPost `json:"post"`
		} `json:"elements"`
	} `json:"data"`
}

// Client wraps a third-party search-posts API that proxies LinkedIn content search.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL, apiKey, userAgent string, httpClient *http.Client, requestRate rate.Limit) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestRate <= 0 {
		requestRate = rate.Inf
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(requestRate, 1),
	}
}

// SearchURL builds the LinkedIn content search page the API is asked to scrape.
func SearchURL(keywords string) string {
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("datePosted", `"past-week"`)
	params.Set("origin", "SWITCH_SEARCH_VERTICAL")
	return searchResultsURL + "?" + params.Encode()
}

func (c *Client) SearchPosts(ctx context.Context, keywords string, start int) ([]content.LinkedInPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("url", SearchURL(keywords))
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sep+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return body.toPosts(), nil
}

func (r searchResponse) toPosts() []content.LinkedInPost {
	if r.Posts != nil {
		posts := make([]content.LinkedInPost, 0, len(r.Posts))
		for _, p := range r.Posts {
			text := p.Text
			if text == "" {
				text = p.EmbeddedObject.Title
			}

			var likes int64
			for _, reaction := range p.NumReactions {
				if reaction.ReactionType == likeReaction {
					likes += reaction.Count
				}
			}

			posts = append(posts, content.LinkedInPost{
				ID:               p.ID,
				Text:             text,
				AuthorName:       p.Actor.Name,
				AuthorProfileURL: p.Actor.URL,
				AuthorImageURL:   p.Actor.Image,
				CreatedAt:        string(p.CreatedAt),
				Likes:            likes,
				Comments:         p.CommentCount,
				Shares:           p.RepostCount,
				URL:              p.URL,
			})
		}
		return posts
	}

	var posts []content.LinkedInPost
	for _, element := range r.Data.Elements {
		if element.Post == nil {
			continue
		}
		p := element.Post
		posts = append(posts, content.LinkedInPost{
			ID:               p.URN,
			Text:             p.Commentary.Text,
			AuthorName:       p.Author.Name,
			AuthorProfileURL: p.Author.NavigationURL,
			CreatedAt:        string(p.PostedAt),
			Likes:            p.SocialDetail.TotalReactions,
			Comments:         p.SocialDetail.Comments,
			Shares:           p.SocialDetail.TotalShares,
			URL:              p.NavigationURL,
		})
	}
	return posts
}
