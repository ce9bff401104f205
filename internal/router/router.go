package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Options configures the engine around the API routes
type Options struct {
	API         api.Deps
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// MediaURL and MediaRoot serve locally stored images; leave MediaRoot empty when images live in S3
	MediaURL  string
	MediaRoot string
	Checks    map[string]HealthCheck
}

// SetupRouter configures the application routes
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(opts.Logger),
		middleware.RequestLogger(opts.Logger, opts.Metrics),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/health", healthHandler(opts.Checks))
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.MediaRoot != "" && opts.MediaURL != "" {
		router.Static(strings.TrimSuffix(opts.MediaURL, "/"), opts.MediaRoot)
	}

	opts.API.Logger = opts.Logger
	opts.API.Metrics = opts.Metrics
	api.SetupAPI(router, opts.API)
	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "components": components})
	}
}
