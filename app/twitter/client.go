package twitter

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
)

const (
	DefaultBaseURL = "https://api.twitter.com/2"

	tweetFields = "created_at,public_metrics,author_id,text"
	userFields  = "username,name,profile_image_url"

	minSearchResults   = 10
	minTimelineResults = 5
	maxPageResults     = 100
)

type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

type PublicMetrics struct {
	LikeCount    int64 `json:"like_count"`
	RetweetCount int64 `json:"retweet_count"`
	ReplyCount   int64 `json:"reply_count"`
}

type Tweet struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

type Page struct {
	Tweets    []Tweet
	Users     map[string]User
	NextToken string
}

type pageResponse struct {
	Data     []Tweet `json:"data"`
	Includes struct {
		Users []User `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type userResponse struct {
	Data *User `json:"data"`
}

// Client is a minimal bearer-token client for the v2 REST API.
type Client struct {
	baseURL     string
	bearerToken string
	userAgent   string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(baseURL, bearerToken, userAgent string, httpClient *http.Client, requestRate rate.Limit) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestRate <= 0 {
		requestRate = rate.Inf
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		userAgent:   userAgent,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(requestRate, 1),
	}
}

func (c *Client) SearchRecent(ctx context.Context, query string, since time.Time, limit int, nextToken string) (Page, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(clamp(limit, minSearchResults, maxPageResults)))
	params.Set("start_time", since.UTC().Format(time.RFC3339))
	params.Set("tweet.fields", tweetFields)
	params.Set("expansions", "author_id")
	params.Set("user.fields", userFields)
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}

	return c.getPage(ctx, "/tweets/search/recent", params)
}

func (c *Client) UserByUsername(ctx context.Context, username string) (User, error) {
	params := url.Values{}
	params.Set("user.fields", userFields)

	var resp userResponse
	if err := c.get(ctx, "/users/by/username/"+url.PathEscape(username), params, &resp); err != nil {
		return User{}, err
	}
	if resp.Data == nil {
		return User{}, fmt.Errorf("user %s not found", username)
	}

	return *resp.Data, nil
}

func (c *Client) UserTweets(ctx context.Context, userID string, since time.Time, limit int, paginationToken string) (Page, error) {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(clamp(limit, minTimelineResults, maxPageResults)))
	params.Set("start_time", since.UTC().Format(time.RFC3339))
	params.Set("tweet.fields", tweetFields)
	params.Set("exclude", "retweets,replies")
	if paginationToken != "" {
		params.Set("pagination_token", paginationToken)
	}

	return c.getPage(ctx, "/users/"+url.PathEscape(userID)+"/tweets", params)
}

func (c *Client) getPage(ctx context.Context, path string, params url.Values) (Page, error) {
	var resp pageResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return Page{}, err
	}

	page := Page{
		Tweets:    resp.Data,
		Users:     make(map[string]User, len(resp.Includes.Users)),
		NextToken: resp.Meta.NextToken,
	}
	for _, user := range resp.Includes.Users {
		page.Users[user.ID] = user
	}

	return page, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %s on %s: %s", resp.Status, path, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
