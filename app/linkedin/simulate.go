package linkedin

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/content-comb/app/content"
)

var simulatedCompanies = []string{"OpenAI", "Google AI", "Anthropic", "DeepMind", "Meta AI"}

// Simulate returns count deterministic company posts tagged Simulated.
func Simulate(count int, now time.Time) []content.RawItem {
	lower := cases.Lower(language.Und)
	now = now.UTC()

	items := make([]content.RawItem, 0, count)
	for i := 0; i < count; i++ {
		company := simulatedCompanies[i%len(simulatedCompanies)]
		slug := strings.ReplaceAll(lower.String(company), " ", "-")
		profile := "https://www.linkedin.com/company/" + slug

		items = append(items, content.LinkedInPost{
			ID:               fmt.Sprintf("simulated-linkedin-%d", i),
			Text:             fmt.Sprintf("Simulated LinkedIn post about AI from %s. This is test data for development purposes.", company),
			AuthorName:       company,
			AuthorProfileURL: profile,
			CreatedAt:        now.AddDate(0, 0, -(i % 7)).Format(time.RFC3339),
			Likes:            int64(100 + 10*i),
			Comments:         int64(20 + 2*i),
			Shares:           int64(5 + i),
			URL:              fmt.Sprintf("%s/posts/simulated-%d", profile, i),
			Simulated:        true,
		})
	}

	return items
}
