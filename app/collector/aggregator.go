package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
)

const DefaultTimeout = 5 * time.Minute

// Aggregator runs every enabled collector and merges their output into one
// batch. A failing collector never affects the others.
type Aggregator struct {
	collectors []Collector
	timeout    time.Duration
	now        func() time.Time
}

func NewAggregator(timeout time.Duration, collectors ...Collector) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		collectors: collectors,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (a *Aggregator) CollectAll(ctx context.Context, req Request) content.IngestionBatch {
	batch := content.NewIngestionBatch(a.now())

	results := make([]Result, len(a.collectors))
	var wg sync.WaitGroup

	for i, c := range a.collectors {
		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()
			results[i] = a.run(ctx, c, req)
		}(i, c)
	}

	wg.Wait()

	for _, result := range results {
		a.merge(&batch, result)
	}

	slog.Info("Collection completed",
		"total", batch.Metadata.TotalItems,
		"active", batch.Metadata.ActiveSources,
		"disabled", batch.Metadata.DisabledSources,
		"failed", batch.Metadata.FailedSources)

	return batch
}

func (a *Aggregator) run(ctx context.Context, c Collector, req Request) (result Result) {
	var source content.Source

	defer func() {
		if r := recover(); r != nil {
			result = Failed(source, fmt.Errorf("collector panicked: %v", r))
		}
	}()

	source = c.Source()
	if !c.Enabled() {
		return Disabled(source)
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	result = c.Collect(runCtx, req)
	result.Source = source

	slog.Debug("Collector finished", "source", source, "status", result.Status, "items", len(result.Items), "duration", time.Since(start))

	return result
}

func (a *Aggregator) merge(batch *content.IngestionBatch, result Result) {
	meta := &batch.Metadata

	switch result.Status {
	case StatusDisabled:
		slog.Info("Source disabled", "source", result.Source)
		meta.DisabledSources = append(meta.DisabledSources, result.Source)
		batch.Add(result.Source, nil)
		return
	case StatusFailed:
		slog.Error("Source collection failed", "source", result.Source, "error", result.Err)
		meta.FailedSources = append(meta.FailedSources, result.Source)
		meta.DisabledSources = append(meta.DisabledSources, result.Source)
		batch.Add(result.Source, nil)
		return
	}

	meta.ActiveSources = append(meta.ActiveSources, result.Source)
	if result.Simulated {
		meta.SimulatedSources = append(meta.SimulatedSources, result.Source)
	}

	collectedAt := a.now()
	items := make([]content.Content, 0, len(result.Items))
	for i, raw := range result.Items {
		c, err := content.ToContent(raw, collectedAt)
		if err != nil {
			slog.Warn("Dropping item that could not be canonicalized", "source", result.Source, "index", i, "error", err)
			continue
		}
		items = append(items, c)
	}

	batch.Add(result.Source, items)
}
