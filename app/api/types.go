package api

import (
	"context"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/metrics"
	"github.com/lysyi3m/content-comb/app/tasks"
)

const (
	maxContentLimit = 500
	maxDatesLimit   = 365
)

type GeneratorInterface interface {
	Run(channel feed.Channel, items []content.Content) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// CacheHealth is satisfied by *cache.Cache.
type CacheHealth interface {
	Health(ctx context.Context) map[string]any
}

type Handler struct {
	reader    database.ContentReader
	generator GeneratorInterface
	scheduler tasks.TaskSchedulerInterface
	metrics   *metrics.Metrics
	cache     CacheHealth
	baseURL   string
	version   string
}
