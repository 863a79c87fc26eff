package database

import (
	"context"

	"github.com/lysyi3m/content-comb/app/content"
)

type ContentSaver interface {
	SaveAll(ctx context.Context, batch content.IngestionBatch) (content.SaveSummary, error)
}

type ContentReader interface {
	RecentContent(ctx context.Context, q Query) ([]content.Content, error)
	AvailableDates(ctx context.Context, limit int) ([]DateCount, error)
	Categories(ctx context.Context) ([]content.Category, error)
	Count(ctx context.Context) (int, error)
}
