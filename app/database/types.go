package database

import (
	"fmt"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
)

const (
	DefaultContentLimit = 50
	DefaultDatesLimit   = 30

	dayLayout = "2006-01-02"
)

// Query selects recent content. Zero values mean no filter.
type Query struct {
	Limit  int
	Source content.Source
	Day    *time.Time
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ParseDay parses a YYYY-MM-DD day as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return day, nil
}

func publishedDate(t time.Time) string {
	return t.UTC().Format(dayLayout)
}
