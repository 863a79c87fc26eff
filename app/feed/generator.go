package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/content-comb/app/content"
)

const untitledLength = 80

type Channel struct {
	Title       string
	Link        string
	Description string
	SelfURL     string
	Generator   string
}

// Generator renders stored content as an RSS 2.0 document.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(channel Channel, items []content.Content) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, "Collected content"), 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = cmp.Or(items[0].PublishedAt, items[0].CollectedAt, lastBuildDate)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", channel.Generator, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item content.Content) {
	buf.WriteString("    <item>\n")

	if item.SourceID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.SourceID)))
		xml.EscapeText(buf, []byte(item.SourceID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", cmp.Or(item.Title, g.untitled(item.Body)), 6)
	g.writeElement(buf, "link", item.URL, 6)

	description := cmp.Or(item.Summary, item.Body, "No description available")
	g.writeElement(buf, "description", description, 6)

	if item.Body != "" && item.Body != description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(item.Body, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
	g.writeElement(buf, "author", item.AuthorName, 6)
	g.writeElement(buf, "category", string(item.Source), 6)

	buf.WriteString("    </item>\n")
}

// untitled derives a title for short-form posts from the start of the body.
func (g *Generator) untitled(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= untitledLength {
		return body
	}
	return string([]rune(body)[:untitledLength]) + "…"
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
