package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run extracts the main article content from an HTML page. When readability
// finds nothing, the page's paragraphs are joined as plain text.
func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	var base *url.URL
	if pageURL != "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			base = parsed
		}
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err == nil {
		var text strings.Builder
		if err := article.RenderText(&text); err == nil && strings.TrimSpace(text.String()) != "" {
			var html strings.Builder
			if err := article.RenderHTML(&html); err == nil && strings.TrimSpace(html.String()) != "" {
				slog.Debug("Content extracted", "url", pageURL, "content_length", html.Len())
				return strings.TrimSpace(html.String()), nil
			}
			return strings.TrimSpace(text.String()), nil
		}
	}

	paragraphs, err := e.paragraphs(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}
	if paragraphs == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted from paragraphs", "url", pageURL, "content_length", len(paragraphs))

	return paragraphs, nil
}

func (e *ContentExtractor) paragraphs(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n\n"), nil
}
