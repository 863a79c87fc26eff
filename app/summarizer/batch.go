package summarizer

import (
	"context"
	"log/slog"
)

type Article struct {
	ID    string
	Title string
	Body  string
}

type BatchResult struct {
	Summaries map[string]string
	Attempted int
	Succeeded int
}

// SummarizeBatch summarizes articles one after another. Failed and skipped
// articles are omitted from Summaries.
func (s *Summarizer) SummarizeBatch(ctx context.Context, articles []Article) BatchResult {
	result := BatchResult{
		Summaries: make(map[string]string),
		Attempted: len(articles),
	}

	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}

		summary, ok := s.Summarize(ctx, article.Body, article.Title).Value()
		if !ok {
			continue
		}

		result.Summaries[article.ID] = summary
		result.Succeeded++
	}

	slog.Info("Batch summarization completed", "succeeded", result.Succeeded, "total", result.Attempted)

	return result
}
