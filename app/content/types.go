package content

import (
	"time"
)

type Source string

const (
	SourceRSS      Source = "rss"
	SourceTwitter  Source = "twitter"
	SourceLinkedIn Source = "linkedin"
)

// Sources returns every known source in report order.
func Sources() []Source {
	return []Source{SourceRSS, SourceTwitter, SourceLinkedIn}
}

func ParseSource(s string) (Source, bool) {
	for _, source := range Sources() {
		if string(source) == s {
			return source, true
		}
	}
	return "", false
}

// Content is the canonical record every source is mapped into.
// Empty strings mean the field is absent.
type Content struct {
	ID             string    `json:"id"`
	Source         Source    `json:"source"`
	SourceID       string    `json:"source_id"`
	Title          string    `json:"title,omitempty"`
	Body           string    `json:"content,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	CollectedAt    time.Time `json:"collected_at"`
	Likes          *int64    `json:"likes"`
	Shares         *int64    `json:"shares"`
	Comments       *int64    `json:"comments"`
	AuthorName     string    `json:"author_name,omitempty"`
	AuthorURL      string    `json:"author_url,omitempty"`
	AuthorImageURL string    `json:"author_image_url,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func Int64(v int64) *int64 {
	return &v
}
