package content

import (
	"time"
)

// RawItem is a source-native record as returned by a collector.
// The set of implementations is closed: FeedEntry, Tweet and LinkedInPost.
type RawItem interface {
	Source() Source
	UpstreamID() string
	isRawItem()
}

type FeedEntry struct {
	FeedName     string
	FeedTitle    string
	GUID         string
	Link         string
	Title        string
	Body         string
	Summary      string
	Author       string
	PublishedAt  *time.Time
	UpdatedAt    *time.Time
	RawPublished string
}

func (e FeedEntry) Source() Source { return SourceRSS }

func (e FeedEntry) UpstreamID() string {
	if e.GUID != "" {
		return e.GUID
	}
	return e.Link
}

func (FeedEntry) isRawItem() {}

type Tweet struct {
	ID              string
	Text            string
	AuthorID        string
	Username        string
	DisplayName     string
	ProfileImageURL string
	CreatedAt       string
	LikeCount       int64
	RetweetCount    int64
	ReplyCount      int64
	Account         string // tracked account the tweet was fetched for
	Simulated       bool
}

func (t Tweet) Source() Source     { return SourceTwitter }
func (t Tweet) UpstreamID() string { return t.ID }
func (Tweet) isRawItem()           {}

type LinkedInPost struct {
	ID               string
	Text             string
	AuthorName       string
	AuthorProfileURL string
	AuthorImageURL   string
	CreatedAt        string
	Likes            int64
	Comments         int64
	Shares           int64
	URL              string
	Simulated        bool
}

func (p LinkedInPost) Source() Source     { return SourceLinkedIn }
func (p LinkedInPost) UpstreamID() string { return p.ID }
func (LinkedInPost) isRawItem()           {}
