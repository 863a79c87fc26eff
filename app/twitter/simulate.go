package twitter

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
)

var simulatedTopics = []string{
	"a new reasoning model",
	"open weights for researchers",
	"an updated safety framework",
	"faster inference on consumer hardware",
	"multimodal agents in production",
}

// Simulate returns a deterministic stand-in dataset for demos and tests.
// Every tweet is tagged Simulated and carries a simulated-twitter-{i} id.
func Simulate(accounts []string, count int, now time.Time) []content.RawItem {
	if len(accounts) == 0 {
		accounts = []string{"OpenAI"}
	}

	items := make([]content.RawItem, 0, count)
	for i := 0; i < count; i++ {
		account := accounts[i%len(accounts)]
		username := cmp.Or(strings.ToLower(strings.ReplaceAll(account, " ", "")), "user")

		items = append(items, content.Tweet{
			ID:           fmt.Sprintf("simulated-twitter-%d", i),
			Text:         fmt.Sprintf("%s shares %s #artificialintelligence", account, simulatedTopics[i%len(simulatedTopics)]),
			Username:     username,
			DisplayName:  account,
			CreatedAt:    now.UTC().Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			LikeCount:    int64(50 + 5*i),
			RetweetCount: int64(10 + i),
			ReplyCount:   int64(3 + i),
			Account:      account,
			Simulated:    true,
		})
	}

	return items
}
