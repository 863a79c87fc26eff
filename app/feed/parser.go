package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(feed.Title),
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	if feed.Image != nil {
		metadata.ImageURL = feed.Image.URL
	}

	if feed.PublishedParsed != nil {
		metadata.FeedPublishedAt = feed.PublishedParsed
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:         cmp.Or(strings.TrimSpace(item.GUID), item.Link),
		Title:        item.Title,
		Link:         item.Link,
		Description:  item.Description,
		Content:      item.Content,
		PublishedAt:  item.PublishedParsed,
		UpdatedAt:    item.UpdatedParsed,
		RawPublished: cmp.Or(item.Published, item.Updated),
		Authors:      p.extractAuthors(item),
		Categories:   item.Categories,
	}

	return normalized
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := p.formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := p.formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

// formatAuthor prefers the display name; an email is only used when no name is present.
func (p *Parser) formatAuthor(name, email string) string {
	return cmp.Or(strings.TrimSpace(name), strings.TrimSpace(email))
}
