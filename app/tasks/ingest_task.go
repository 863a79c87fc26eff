package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/content-comb/app/ingest"
)

// Runner is satisfied by *ingest.Pipeline.
type Runner interface {
	Run(ctx context.Context, opts ingest.Options) (ingest.Report, error)
}

type IngestTask struct {
	Task
	runner  Runner
	options ingest.Options
}

func NewIngestTask(trigger Trigger, runner Runner, options ingest.Options) *IngestTask {
	return &IngestTask{
		Task:    NewTask(TaskTypeIngest, trigger),
		runner:  runner,
		options: options,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.runner.Run(ctx, t.options)
	if err != nil {
		slog.Error("Task failed", "type", t.Type, "trigger", t.Trigger, "error", err)
		return fmt.Errorf("failed to run ingestion: %w", err)
	}

	saved := 0
	if report.Summary != nil {
		saved = report.Summary.Total
	}

	slog.Info("Task completed",
		"type", t.Type,
		"trigger", t.Trigger,
		"collected", report.Batch.Metadata.TotalItems,
		"saved", saved,
		"duration", t.GetDuration())

	return nil
}
