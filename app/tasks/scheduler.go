package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/content-comb/app/ingest"
)

const (
	DefaultWorkerCount = 2
	DefaultInterval    = time.Hour
	DefaultTaskTimeout = 30 * time.Minute

	queueSize     = 100
	maxRetryDelay = 30 * time.Second
)

type SchedulerConfig struct {
	WorkerCount    int
	Interval       time.Duration
	TaskTimeout    time.Duration
	CollectOnStart bool
	Options        ingest.Options
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	runner         Runner
	feeds          FeedReloader
	options        ingest.Options
	interval       time.Duration
	taskTimeout    time.Duration
	workerCount    int
	collectOnStart bool
	retryBaseDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

// NewScheduler builds a scheduler that runs ingestion on an interval.
// feeds may be nil when feed definitions should not be reloaded.
func NewScheduler(cfg SchedulerConfig, runner Runner, feeds FeedReloader) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}

	return &Scheduler{
		runner:         runner,
		feeds:          feeds,
		options:        cfg.Options,
		interval:       cfg.Interval,
		taskTimeout:    cfg.TaskTimeout,
		workerCount:    cfg.WorkerCount,
		collectOnStart: cfg.CollectOnStart,
		retryBaseDelay: time.Second,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.collectOnStart {
			s.enqueueTasks(TriggerStartup)
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks(TriggerSchedule)
			}
		}
	}()

	slog.Info("Scheduler started", "workers", s.workerCount, "interval", s.interval, "collect_on_start", s.collectOnStart)
}

// Stop cancels running tasks and waits for workers to exit. The queue is
// left open so late retries fail on the cancelled context instead of panicking.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueIngest queues one ingestion run and returns its task id.
func (s *Scheduler) EnqueueIngest(trigger Trigger) (string, error) {
	task := NewIngestTask(trigger, s.runner, s.options)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) enqueueTasks(trigger Trigger) {
	if s.feeds != nil {
		if err := s.EnqueueTask(NewReloadFeedsTask(trigger, s.feeds)); err != nil {
			slog.Warn("Failed to enqueue ReloadFeedsTask", "trigger", trigger, "error", err)
		}
	}

	if _, err := s.EnqueueIngest(trigger); err != nil {
		slog.Warn("Failed to enqueue IngestTask", "trigger", trigger, "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "trigger", task.GetTrigger(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from the base delay per attempt, capped at maxRetryDelay.
func (s *Scheduler) retryDelay(attempt int) time.Duration {
	delay := s.retryBaseDelay << uint(attempt-1)
	if delay > maxRetryDelay || delay <= 0 {
		delay = maxRetryDelay
	}
	return delay
}
