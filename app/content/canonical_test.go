package content

import (
	"errors"
	"testing"
	"time"
)

var collectedAt = time.Date(2025, 5, 27, 12, 0, 0, 0, time.UTC)

func TestToContentFeedEntry(t *testing.T) {
	published := time.Date(2025, 5, 26, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	entry := FeedEntry{
		FeedName:    "mit_ai",
		FeedTitle:   "MIT News - AI",
		GUID:        "entry-1",
		Link:        "https://example.com/articles/1",
		Title:       "  New model released  ",
		Body:        "Body text",
		Summary:     "Short summary",
		PublishedAt: &published,
	}

	c, err := ToContent(entry, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if c.ID == "" {
		t.Error("Expected generated ID")
	}
	if c.Source != SourceRSS {
		t.Errorf("Expected source 'rss', got: %s", c.Source)
	}
	if c.SourceID != "entry-1" {
		t.Errorf("Expected source ID 'entry-1', got: %s", c.SourceID)
	}
	if c.Title != "New model released" {
		t.Errorf("Expected trimmed title, got: %q", c.Title)
	}
	if !c.PublishedAt.Equal(published) || c.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected published_at %v in UTC, got: %v", published, c.PublishedAt)
	}
	if !c.CollectedAt.Equal(collectedAt) {
		t.Errorf("Expected collected_at %v, got: %v", collectedAt, c.CollectedAt)
	}
	if c.AuthorName != "MIT News - AI" {
		t.Errorf("Expected feed title as author, got: %s", c.AuthorName)
	}
	if c.Summary != "Short summary" {
		t.Errorf("Expected summary to be carried over, got: %s", c.Summary)
	}
	if c.Likes != nil || c.Shares != nil || c.Comments != nil {
		t.Error("Expected no engagement metrics for feed entries")
	}
}

func TestToContentFeedEntryFallbacks(t *testing.T) {
	updated := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	c, err := ToContent(FeedEntry{FeedName: "wired_ai", Link: "https://example.com/a", UpdatedAt: &updated}, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if c.SourceID != "https://example.com/a" {
		t.Errorf("Expected link as source ID, got: %s", c.SourceID)
	}
	if !c.PublishedAt.Equal(updated) {
		t.Errorf("Expected updated time as published_at, got: %v", c.PublishedAt)
	}
	if c.AuthorName != "wired_ai" {
		t.Errorf("Expected feed name as author, got: %s", c.AuthorName)
	}

	c, err = ToContent(FeedEntry{Link: "https://example.com/b", RawPublished: "not a date"}, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !c.PublishedAt.Equal(collectedAt) {
		t.Errorf("Expected collection time as published_at, got: %v", c.PublishedAt)
	}
}

func TestToContentTweet(t *testing.T) {
	tweet := Tweet{
		ID:           "1790000000000000000",
		Text:         "Shipping something #artificialintelligence",
		Username:     "openai",
		DisplayName:  "OpenAI",
		CreatedAt:    "2025-05-26T10:00:00.000Z",
		LikeCount:    10,
		RetweetCount: 3,
		ReplyCount:   2,
	}

	c, err := ToContent(tweet, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if c.URL != "https://twitter.com/openai/status/1790000000000000000" {
		t.Errorf("Expected status URL, got: %s", c.URL)
	}
	if c.AuthorURL != "https://twitter.com/openai" {
		t.Errorf("Expected author URL, got: %s", c.AuthorURL)
	}
	if c.AuthorName != "OpenAI" {
		t.Errorf("Expected display name as author, got: %s", c.AuthorName)
	}
	if *c.Likes != 10 || *c.Shares != 3 || *c.Comments != 2 {
		t.Errorf("Expected likes/shares/comments 10/3/2, got: %d/%d/%d", *c.Likes, *c.Shares, *c.Comments)
	}
	expected := time.Date(2025, 5, 26, 10, 0, 0, 0, time.UTC)
	if !c.PublishedAt.Equal(expected) {
		t.Errorf("Expected published_at %v, got: %v", expected, c.PublishedAt)
	}
	if c.Title != "" {
		t.Errorf("Expected no title for tweets, got: %s", c.Title)
	}
}

func TestToContentTweetAccountURL(t *testing.T) {
	c, err := ToContent(Tweet{ID: "42", Account: "OpenAI"}, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if c.URL != "https://twitter.com/OpenAI/status/42" {
		t.Errorf("Expected account status URL, got: %s", c.URL)
	}
	if c.AuthorURL != "" || c.AuthorName != "" {
		t.Errorf("Expected empty author fields, got: %q %q", c.AuthorName, c.AuthorURL)
	}
}

func TestToContentLinkedInPostMissingAuthor(t *testing.T) {
	post := LinkedInPost{
		ID:        "urn:li:activity:1",
		Text:      "Hiring",
		CreatedAt: "garbage",
		Likes:     5,
		Comments:  1,
		Shares:    0,
	}

	c, err := ToContent(post, collectedAt)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if c.URL != "https://www.linkedin.com/feed/update/urn:li:activity:1" {
		t.Errorf("Expected derived post URL, got: %s", c.URL)
	}
	if c.AuthorName != "" || c.AuthorURL != "" || c.AuthorImageURL != "" {
		t.Error("Expected empty author fields")
	}
	if !c.PublishedAt.Equal(collectedAt) {
		t.Errorf("Expected collection time fallback, got: %v", c.PublishedAt)
	}
	if *c.Shares != 0 {
		t.Errorf("Expected shares 0, got: %d", *c.Shares)
	}
}

func TestToContentMissingURL(t *testing.T) {
	_, err := ToContent(FeedEntry{Title: "No link"}, collectedAt)
	if !errors.Is(err, ErrMissingURL) {
		t.Errorf("Expected ErrMissingURL, got: %v", err)
	}
}

type unknownItem struct{}

func (unknownItem) Source() Source     { return "mastodon" }
func (unknownItem) UpstreamID() string { return "1" }
func (unknownItem) isRawItem()         {}

func TestToContentUnknownVariant(t *testing.T) {
	_, err := ToContent(unknownItem{}, collectedAt)
	if !errors.Is(err, ErrUnknownRawItem) {
		t.Errorf("Expected ErrUnknownRawItem, got: %v", err)
	}
}

func TestToContentNilItems(t *testing.T) {
	for _, raw := range []RawItem{nil, (*FeedEntry)(nil), (*Tweet)(nil), (*LinkedInPost)(nil)} {
		if _, err := ToContent(raw, collectedAt); !errors.Is(err, ErrUnknownRawItem) {
			t.Errorf("Expected ErrUnknownRawItem for %T, got: %v", raw, err)
		}
	}
}

func TestToContentGeneratesDistinctIDs(t *testing.T) {
	entry := FeedEntry{GUID: "same", Link: "https://example.com/same"}

	a, _ := ToContent(entry, collectedAt)
	b, _ := ToContent(entry, collectedAt)

	if a.ID == b.ID {
		t.Error("Expected distinct IDs for separate canonicalizations")
	}
	if a.SourceID != b.SourceID {
		t.Error("Expected identical natural keys")
	}
}

func TestParseTime(t *testing.T) {
	cases := map[string]time.Time{
		"2025-05-27T10:00:00Z":            time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC),
		"Tue, 27 May 2025 10:00:00 +0000": time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC),
		"1748340000":                      time.Unix(1748340000, 0).UTC(),
	}

	for input, expected := range cases {
		got, ok := ParseTime(input)
		if !ok {
			t.Errorf("Expected %q to parse", input)
			continue
		}
		if !got.Equal(expected) {
			t.Errorf("Expected %v for %q, got: %v", expected, input, got)
		}
	}

	if _, ok := ParseTime(""); ok {
		t.Error("Expected empty string not to parse")
	}
	if _, ok := ParseTime("yesterday-ish"); ok {
		t.Error("Expected garbage not to parse")
	}
}
