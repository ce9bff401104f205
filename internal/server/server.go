package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	db      *gorm.DB
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New wires the services over db and builds the HTTP server. redisClient may be nil.
func New(cfg *config.Config, db *gorm.DB, images storage.ImageStore, redisClient *redis.Client, log *logger.Logger) *Server {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	m := metrics.New()

	follows := service.NewFollowService(db, log, m)
	favorites := service.NewFavoriteService(db, log, m)
	carts := service.NewShoppingCartService(db, log, m)
	recipes := service.NewRecipeService(db, images, favorites, carts, follows, log, m)

	checks := map[string]router.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	opts := router.Options{
		API: api.Deps{
			Auth:          service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, log),
			Users:         service.NewUserService(db, follows, recipes, log),
			Recipes:       recipes,
			Catalog:       service.NewCatalogService(db, log),
			RecipeLimiter: middleware.NewRecipeCreationLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow),
			PageSize:      cfg.PageSize,
		},
		Logger:      log,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
		Checks:      checks,
	}
	if _, local := images.(*storage.LocalStore); local {
		opts.MediaURL = cfg.MediaURL
		opts.MediaRoot = cfg.MediaRoot
	}

	r := router.SetupRouter(opts)
	return &Server{
		router: r,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:      db,
		logger:  log,
		metrics: m,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Stop is called
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Run starts the server and shuts it down gracefully on SIGINT, SIGTERM or ctx cancellation
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return <-errChan
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
