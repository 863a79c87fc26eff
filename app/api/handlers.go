package api

import (
	"cmp"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/metrics"
	"github.com/lysyi3m/content-comb/app/tasks"
)

// NewHandler wires read access to stored content. scheduler may be nil, in
// which case collection cannot be triggered over HTTP.
func NewHandler(reader database.ContentReader, scheduler tasks.TaskSchedulerInterface,
	m *metrics.Metrics, baseURL, version string) *Handler {
	return &Handler{
		reader:    reader,
		generator: feed.NewGenerator(),
		scheduler: scheduler,
		metrics:   m,
		baseURL:   baseURL,
		version:   version,
	}
}

// WithCache adds the summary cache to health reporting.
func (h *Handler) WithCache(cache CacheHealth) *Handler {
	h.cache = cache
	return h
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if h.cache != nil {
		health["cache"] = h.cache.Health(c.Request.Context())
	}

	count, err := h.reader.Count(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_content", "error", err)
		health["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["content"] = count

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetContent(c *gin.Context) {
	q, err := parseContentQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.reader.RecentContent(c.Request.Context(), q)
	if err != nil {
		slog.Error("Database error", "operation", "recent_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if items == nil {
		items = []content.Content{}
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDates(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"), database.DefaultDatesLimit, maxDatesLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dates, err := h.reader.AvailableDates(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "available_dates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, dates)
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.reader.Categories(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GetFeed renders recent stored content as RSS. The source parameter is
// either a source name or "all".
func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("source")

	q := database.Query{Limit: database.DefaultContentLimit}
	if name != "all" {
		source, ok := content.ParseSource(name)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		q.Source = source
	}

	items, err := h.reader.RecentContent(c.Request.Context(), q)
	if err != nil {
		slog.Error("Database error", "operation", "recent_content", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.Channel{
		Title:       fmt.Sprintf("Content Comb: %s", name),
		Link:        cmp.Or(h.baseURL, "http://localhost"),
		Description: fmt.Sprintf("Recently collected %s content", name),
		Generator:   "Content Comb " + h.version,
	}
	if h.baseURL != "" {
		channel.SelfURL = h.baseURL + "/feeds/" + name
	}

	rss, err := h.generator.Run(channel, items)
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Name", name)

	c.String(http.StatusOK, rss)
}

func (h *Handler) APICollect(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is not running"})
		return
	}

	id, err := h.scheduler.EnqueueIngest(tasks.TriggerAPI)
	if err != nil {
		slog.Error("Error enqueueing ingest task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue ingest task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Collection enqueued",
		"task": gin.H{
			"id":   id,
			"type": tasks.TaskTypeIngest,
		},
	})
}

func parseContentQuery(c *gin.Context) (database.Query, error) {
	limit, err := parseLimit(c.Query("limit"), database.DefaultContentLimit, maxContentLimit)
	if err != nil {
		return database.Query{}, err
	}
	q := database.Query{Limit: limit}

	if v := c.Query("source"); v != "" {
		source, ok := content.ParseSource(v)
		if !ok {
			return database.Query{}, fmt.Errorf("unknown source %q", v)
		}
		q.Source = source
	}

	if v := c.Query("date"); v != "" {
		day, err := database.ParseDay(v)
		if err != nil {
			return database.Query{}, err
		}
		q.Day = &day
	}

	return q, nil
}

func parseLimit(raw string, fallback, ceiling int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(n, ceiling), nil
}
