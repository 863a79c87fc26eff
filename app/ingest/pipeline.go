package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/metrics"
)

const (
	DefaultDaysAgo    = 7
	DefaultMaxResults = 100
)

var ErrNoStore = errors.New("database saving requested but no store is configured")

// BatchCollector is satisfied by *collector.Aggregator.
type BatchCollector interface {
	CollectAll(ctx context.Context, req collector.Request) content.IngestionBatch
}

type Options struct {
	DaysAgo    int
	MaxResults int
	SaveJSON   bool
	SaveDB     bool
	OutputFile string // overrides the timestamped dump path
}

type Report struct {
	Batch    content.IngestionBatch
	Summary  *content.SaveSummary
	DumpPath string
	Duration time.Duration
}

// Pipeline runs one collect, dump and persist cycle.
type Pipeline struct {
	collector BatchCollector
	store     database.ContentSaver
	dumpDir   string
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPipeline(c BatchCollector, store database.ContentSaver, dumpDir string, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		collector: c,
		store:     store,
		dumpDir:   dumpDir,
		metrics:   m,
		now:       time.Now,
	}
}

func (p *Pipeline) Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()

	if opts.DaysAgo <= 0 {
		opts.DaysAgo = DefaultDaysAgo
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.SaveDB && p.store == nil {
		return Report{}, ErrNoStore
	}

	req := collector.Request{
		Window: collector.NewWindow(p.now(), opts.DaysAgo),
		Limit:  opts.MaxResults,
	}

	slog.Info("Starting ingestion run", "days_ago", opts.DaysAgo, "max_results", opts.MaxResults, "save_json", opts.SaveJSON, "save_db", opts.SaveDB)

	report := Report{Batch: p.collector.CollectAll(ctx, req)}
	p.recordCollection(report.Batch)

	if opts.SaveJSON {
		path := opts.OutputFile
		if path == "" {
			path = collector.DefaultDumpPath(p.dumpDir, p.now())
		}
		if err := collector.WriteDump(path, report.Batch); err != nil {
			slog.Error("Failed to write collection dump", "path", path, "error", err)
		} else {
			report.DumpPath = path
			slog.Info("Collection dump written", "path", path)
		}
	}

	if opts.SaveDB {
		summary, err := p.store.SaveAll(ctx, report.Batch)
		if err != nil {
			report.Duration = time.Since(start)
			p.recordRun(report.Duration, err)
			return report, fmt.Errorf("failed to save batch: %w", err)
		}
		report.Summary = &summary
		p.recordSaved(summary)

		slog.Info("Batch saved",
			"rss", summary.Counts[content.SourceRSS],
			"twitter", summary.Counts[content.SourceTwitter],
			"linkedin", summary.Counts[content.SourceLinkedIn],
			"total", summary.Total)
	}

	report.Duration = time.Since(start)
	p.recordRun(report.Duration, nil)

	slog.Info("Ingestion run completed", "items", report.Batch.Metadata.TotalItems, "duration", report.Duration)

	return report, nil
}

func (p *Pipeline) recordCollection(batch content.IngestionBatch) {
	if p.metrics == nil {
		return
	}

	for source, items := range batch.Items {
		p.metrics.ItemsCollected.WithLabelValues(string(source)).Add(float64(len(items)))
	}

	meta := batch.Metadata
	for status, sources := range map[string][]content.Source{
		"active":    meta.ActiveSources,
		"disabled":  meta.DisabledSources,
		"failed":    meta.FailedSources,
		"simulated": meta.SimulatedSources,
	} {
		for _, source := range sources {
			p.metrics.CollectorResults.WithLabelValues(string(source), status).Inc()
		}
	}
}

func (p *Pipeline) recordSaved(summary content.SaveSummary) {
	if p.metrics == nil {
		return
	}
	for source, n := range summary.Counts {
		p.metrics.ItemsSaved.WithLabelValues(string(source)).Add(float64(n))
	}
}

func (p *Pipeline) recordRun(d time.Duration, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunDuration.Observe(d.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.Runs.WithLabelValues(outcome).Inc()
}
