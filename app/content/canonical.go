package content

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingURL     = errors.New("content has no url")
	ErrUnknownRawItem = errors.New("unknown raw item type")
)

// ToContent maps a source-native record into canonical Content.
// It performs no I/O; unparseable timestamps fall back to collectedAt.
func ToContent(raw RawItem, collectedAt time.Time) (Content, error) {
	collectedAt = collectedAt.UTC()

	var c Content
	switch item := raw.(type) {
	case FeedEntry:
		c = fromFeedEntry(item, collectedAt)
	case *FeedEntry:
		if item == nil {
			return Content{}, fmt.Errorf("%w: nil %T", ErrUnknownRawItem, raw)
		}
		c = fromFeedEntry(*item, collectedAt)
	case Tweet:
		c = fromTweet(item, collectedAt)
	case *Tweet:
		if item == nil {
			return Content{}, fmt.Errorf("%w: nil %T", ErrUnknownRawItem, raw)
		}
		c = fromTweet(*item, collectedAt)
	case LinkedInPost:
		c = fromLinkedInPost(item, collectedAt)
	case *LinkedInPost:
		if item == nil {
			return Content{}, fmt.Errorf("%w: nil %T", ErrUnknownRawItem, raw)
		}
		c = fromLinkedInPost(*item, collectedAt)
	default:
		return Content{}, fmt.Errorf("%w: %T", ErrUnknownRawItem, raw)
	}

	if c.URL == "" {
		return Content{}, fmt.Errorf("%w: %s item %q", ErrMissingURL, c.Source, c.SourceID)
	}

	c.ID = uuid.New().String()
	c.SourceID = cmp.Or(c.SourceID, c.URL)
	c.CollectedAt = collectedAt

	return c, nil
}

func fromFeedEntry(e FeedEntry, collectedAt time.Time) Content {
	return Content{
		Source:      SourceRSS,
		SourceID:    strings.TrimSpace(e.UpstreamID()),
		Title:       strings.TrimSpace(e.Title),
		Body:        e.Body,
		Summary:     e.Summary,
		URL:         strings.TrimSpace(e.Link),
		PublishedAt: feedPublishedAt(e, collectedAt),
		AuthorName:  cmp.Or(strings.TrimSpace(e.Author), strings.TrimSpace(e.FeedTitle), e.FeedName),
	}
}

func feedPublishedAt(e FeedEntry, collectedAt time.Time) time.Time {
	if e.PublishedAt != nil && !e.PublishedAt.IsZero() {
		return e.PublishedAt.UTC()
	}
	if e.UpdatedAt != nil && !e.UpdatedAt.IsZero() {
		return e.UpdatedAt.UTC()
	}
	if t, ok := ParseTime(e.RawPublished); ok {
		return t
	}
	return collectedAt
}

func fromTweet(t Tweet, collectedAt time.Time) Content {
	c := Content{
		Source:         SourceTwitter,
		SourceID:       t.ID,
		Body:           t.Text,
		PublishedAt:    parseOr(t.CreatedAt, collectedAt),
		Likes:          Int64(t.LikeCount),
		Shares:         Int64(t.RetweetCount),
		Comments:       Int64(t.ReplyCount),
		AuthorName:     cmp.Or(t.DisplayName, t.Username),
		AuthorImageURL: t.ProfileImageURL,
	}

	if t.ID != "" {
		c.URL = fmt.Sprintf("https://twitter.com/%s/status/%s", cmp.Or(t.Account, t.Username, "user"), t.ID)
	}
	if t.Username != "" {
		c.AuthorURL = "https://twitter.com/" + t.Username
	}

	return c
}

func fromLinkedInPost(p LinkedInPost, collectedAt time.Time) Content {
	c := Content{
		Source:         SourceLinkedIn,
		SourceID:       p.ID,
		Body:           p.Text,
		URL:            p.URL,
		PublishedAt:    parseOr(p.CreatedAt, collectedAt),
		Likes:          Int64(p.Likes),
		Shares:         Int64(p.Shares),
		Comments:       Int64(p.Comments),
		AuthorName:     p.AuthorName,
		AuthorURL:      p.AuthorProfileURL,
		AuthorImageURL: p.AuthorImageURL,
	}

	if c.URL == "" && p.ID != "" {
		c.URL = "https://www.linkedin.com/feed/update/" + p.ID
	}

	return c
}

func parseOr(s string, fallback time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return fallback
}
