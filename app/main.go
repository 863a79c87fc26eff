package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/content-comb/app/api"
	"github.com/lysyi3m/content-comb/app/cache"
	"github.com/lysyi3m/content-comb/app/cfg"
	"github.com/lysyi3m/content-comb/app/collector"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/ingest"
	"github.com/lysyi3m/content-comb/app/linkedin"
	"github.com/lysyi3m/content-comb/app/metrics"
	"github.com/lysyi3m/content-comb/app/summarizer"
	"github.com/lysyi3m/content-comb/app/tasks"
	"github.com/lysyi3m/content-comb/app/twitter"
)

const (
	httpClientTimeout = 2 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(c *cfg.Cfg) error {
	if !c.InitDB && !c.Collect && !c.Serve {
		return errors.New("nothing to do: pass --init-db, --collect or --serve")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting Content Comb", "version", c.Version, "driver", c.DBDriver)

	var store *database.ContentRepository
	if c.InitDB || c.Serve || c.SaveDB {
		db, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()
		store = database.NewContentRepository(db)
	}

	if c.InitDB && !c.Collect && !c.Serve {
		return nil
	}

	m := metrics.New()

	summaryCache, err := openCache(ctx, c)
	if err != nil {
		return err
	}
	if summaryCache != nil {
		defer summaryCache.Close()
	}

	configCache := feed.NewConfigCache(c.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", c.FeedsDir, "count", configCache.GetConfigCount())

	pipeline := buildPipeline(c, configCache, summaryCache, store, m)

	if c.Collect {
		if err := collectOnce(ctx, c, pipeline); err != nil {
			return err
		}
	}

	if c.Serve {
		return serve(ctx, c, pipeline, configCache, store, summaryCache, m)
	}

	return nil
}

func openDatabase(c *cfg.Cfg) (*database.DB, error) {
	slog.Info("Connecting to database", "driver", c.DBDriver)

	db, err := database.Open(c.DBDriver, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	return db, nil
}

func openCache(ctx context.Context, c *cfg.Cfg) (*cache.Cache, error) {
	if c.RedisAddr == "" || !c.Summarize {
		return nil, nil
	}

	summaryCache, err := cache.NewCache(ctx, c.RedisAddr, c.SummaryCacheTTL)
	if err != nil {
		return nil, err
	}
	return summaryCache, nil
}

func buildPipeline(c *cfg.Cfg, configCache *feed.ConfigCache, summaryCache *cache.Cache,
	store *database.ContentRepository, m *metrics.Metrics) *ingest.Pipeline {
	httpClient := &http.Client{Timeout: httpClientTimeout}

	s := summarizer.New(summarizer.Config{
		Enabled:   c.Summarize,
		APIKey:    c.SummarizationAPIKey,
		Endpoint:  c.SummarizationAPIURL,
		Model:     c.SummarizationModel,
		MaxTokens: c.SummarizationMaxTokens,
		Timeout:   c.SummarizationTimeout,
		Rate:      rate.Limit(c.SummarizationRate),
	}).WithObserver(func(o summarizer.Outcome) {
		m.Summaries.WithLabelValues(string(o)).Inc()
	})
	if summaryCache != nil {
		s = s.WithCache(summaryCache)
	}

	var feedSummarizer feed.Summarizer
	if s.Enabled() {
		feedSummarizer = s
	}

	aggregator := collector.NewAggregator(c.CollectorTimeout,
		feed.NewCollector(configCache, httpClient, feedSummarizer, c.UserAgent, rate.Limit(c.FeedRate)),
		twitter.NewCollector(twitter.Config{
			BearerToken: c.TwitterBearerToken,
			BaseURL:     c.TwitterAPIURL,
			Hashtags:    c.TwitterHashtags,
			Accounts:    c.TwitterAccounts,
			Simulate:    c.Simulate,
			RequestRate: rate.Limit(c.RequestRate),
			UserAgent:   c.UserAgent,
		}, httpClient),
		linkedin.NewCollector(linkedin.Config{
			APIKey:      c.LinkedInAPIKey,
			BaseURL:     c.LinkedInAPIURL,
			Companies:   c.LinkedInCompanies,
			Influencers: c.LinkedInInfluencers,
			Keywords:    c.LinkedInKeywords,
			Simulate:    c.Simulate,
			RequestRate: rate.Limit(c.RequestRate),
			UserAgent:   c.UserAgent,
		}, httpClient),
	)

	var saver database.ContentSaver
	if store != nil {
		saver = store
	}

	return ingest.NewPipeline(aggregator, saver, c.DataDir, m)
}

func ingestOptions(c *cfg.Cfg) ingest.Options {
	return ingest.Options{
		DaysAgo:    c.DaysAgo,
		MaxResults: c.MaxResults,
		SaveJSON:   c.SaveJSON,
		SaveDB:     c.SaveDB,
		OutputFile: c.OutputFile,
	}
}

func collectOnce(ctx context.Context, c *cfg.Cfg, pipeline *ingest.Pipeline) error {
	report, err := pipeline.Run(ctx, ingestOptions(c))
	if err != nil {
		return err
	}

	out := map[string]any{"metadata": report.Batch.Metadata}
	if report.Summary != nil {
		out["saved"] = report.Summary
	}
	if report.DumpPath != "" {
		out["dump"] = report.DumpPath
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to print run summary: %w", err)
	}

	return nil
}

func serve(ctx context.Context, c *cfg.Cfg, pipeline *ingest.Pipeline, configCache *feed.ConfigCache,
	store *database.ContentRepository, summaryCache *cache.Cache, m *metrics.Metrics) error {
	options := ingestOptions(c)
	options.SaveDB = true

	scheduler := tasks.NewScheduler(tasks.SchedulerConfig{
		WorkerCount:    c.WorkerCount,
		Interval:       c.SchedulerInterval,
		CollectOnStart: c.CollectOnStart,
		Options:        options,
	}, pipeline, configCache)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, scheduler, m, c.BaseURL, c.Version)
	if summaryCache != nil {
		handler = handler.WithCache(summaryCache)
	}

	server := &http.Server{
		Addr:              ":" + c.Port,
		Handler:           api.NewServer(handler, c.APIAccessKey),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
