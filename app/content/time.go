package content

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseTime parses upstream timestamps in whatever layout the source used.
// Epoch seconds and milliseconds are accepted. Results are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}
