package summarizer

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

const (
	MinContentLength = 50
	MaxContentLength = 2000
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	whitespace  = regexp.MustCompile(`\s+`)
)

// Clean turns article markup into plain text bounded to MaxContentLength runes.
func Clean(body string) string {
	text := html.UnescapeString(body)
	text = stripPolicy.Sanitize(text)
	// bluemonday escapes what it keeps
	text = html.UnescapeString(text)
	text = norm.NFKC.String(text)
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))

	return truncate(text, MaxContentLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
