package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// FeedReloader is satisfied by *feed.ConfigCache.
type FeedReloader interface {
	Run() error
	GetConfigCount() int
}

// ReloadFeedsTask re-reads feed definitions so edits land without a restart.
type ReloadFeedsTask struct {
	Task
	feeds FeedReloader
}

func NewReloadFeedsTask(trigger Trigger, feeds FeedReloader) *ReloadFeedsTask {
	return &ReloadFeedsTask{
		Task:  NewTask(TaskTypeReloadFeeds, trigger),
		feeds: feeds,
	}
}

func (t *ReloadFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.feeds.Run(); err != nil {
		slog.Error("Task failed", "type", t.Type, "error", err)
		return fmt.Errorf("failed to reload feed configurations: %w", err)
	}

	slog.Debug("Task completed", "type", t.Type, "feeds", t.feeds.GetConfigCount(), "duration", t.GetDuration())

	return nil
}
