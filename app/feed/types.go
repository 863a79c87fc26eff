package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title           string
	Link            string
	Description     string
	ImageURL        string
	Language        string
	FeedPublishedAt *time.Time
}

type Item struct {
	GUID         string
	Title        string
	Link         string
	Description  string
	Content      string
	PublishedAt  *time.Time
	UpdatedAt    *time.Time
	RawPublished string
	Authors      []string // "name" or "email (name)"
	Categories   []string
}

// Body returns the best available body: structured content first, then the description.
func (i Item) Body() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Description
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Title    string         `yaml:"title"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	MaxItems       int  `yaml:"max_items"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractContent bool `yaml:"extract_content"` // fetch the article page when an entry has no body
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
