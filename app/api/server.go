package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/metrics"},
	}))

	r.Use(gin.Recovery())

	if handler.metrics != nil {
		r.Use(func(c *gin.Context) {
			c.Next()
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			handler.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		})
	}

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/feeds/:source", handler.GetFeed)

	r.GET("/health", handler.GetHealth)

	if handler.metrics != nil {
		r.GET("/metrics", gin.WrapH(handler.metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/content", handler.GetContent)
		api.GET("/content/dates", handler.GetDates)
		api.GET("/categories", handler.GetCategories)
	}

	// Admin endpoints are only exposed when an access key is configured
	if apiAccessKey != "" {
		admin := r.Group("/api")
		admin.Use(authMiddleware(apiAccessKey))
		{
			admin.POST("/collect", handler.APICollect)
		}
		slog.Info("Admin API endpoints enabled with authentication")
	} else {
		slog.Info("Admin API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"feed":       "/feeds/<rss|twitter|linkedin|all>",
			"health":     "/health",
			"content":    "/api/content?limit=&source=&date=YYYY-MM-DD",
			"dates":      "/api/content/dates?limit=",
			"categories": "/api/categories",
		}
		if handler.metrics != nil {
			endpoints["metrics"] = "/metrics"
		}
		if apiAccessKey != "" {
			endpoints["collect"] = "/api/collect (POST, requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "Content Comb",
			"version":     handler.version,
			"description": "Feed and social content collector with summarization and deduplicated storage",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// authMiddleware accepts the key from X-API-Key or an Authorization bearer token
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
