package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List applied migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DBDriver != config.DriverPostgres {
		log.Fatalf("migrations run against postgres only, DB_DRIVER is %q", cfg.DBDriver)
	}

	appLogger, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	m := database.NewMigrator(db.DB, appLogger)
	switch {
	case *status:
		applied, err := m.Applied(ctx)
		if err != nil {
			appLogger.Fatal("failed to read migration state", "error", err)
		}
		for _, name := range applied {
			fmt.Fprintln(os.Stdout, name)
		}
	case *rollback:
		name, err := m.Down(ctx)
		if err != nil {
			appLogger.Fatal("rollback failed", "error", err)
		}
		if name == "" {
			appLogger.Info("no migrations to rollback")
			return
		}
		appLogger.Info("rolled back migration", "name", name)
	default:
		applied, err := m.Up(ctx)
		if err != nil {
			appLogger.Fatal("migration failed", "error", err)
		}
		appLogger.Info("migrations complete", "applied", len(applied))
	}
}
