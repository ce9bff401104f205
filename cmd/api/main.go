package main

import (
	"context"
	"log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := validation.Register(); err != nil {
		appLogger.Fatal("failed to register validators", "error", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.Open(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(ctx, db, appLogger); err != nil {
		appLogger.Fatal("failed to run migrations", "error", err)
	}

	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("redis unavailable, using in-memory rate limiting", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("failed to initialize image storage", "error", err)
	}

	// Create and start server
	srv := server.New(cfg, db, images, redisClient, appLogger)
	if err := srv.Run(ctx); err != nil {
		appLogger.Fatal("server error", "error", err)
	}
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStorage == config.StorageS3 {
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(s3Cfg), nil
	}
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
}
