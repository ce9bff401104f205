// Command load_data fills the tag and ingredient catalog from data files.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "CSV file of name,measurement_unit rows")
	tagsPath := flag.String("tags", "", "optional JSON file with an array of {name, color, slug}")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()
	db, err := database.Open(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(ctx, db, appLogger); err != nil {
		appLogger.Fatal("failed to run migrations", "error", err)
	}

	catalog := service.NewCatalogService(db, appLogger)
	load := func(path string, importer func(context.Context, *os.File) (int64, error)) {
		f, err := os.Open(path)
		if err != nil {
			appLogger.Fatal("failed to open data file", "path", path, "error", err)
		}
		defer f.Close()
		n, err := importer(ctx, f)
		if err != nil {
			appLogger.Fatal("import failed", "path", path, "error", err)
		}
		appLogger.Info("loaded", "path", path, "inserted", n)
	}

	if *ingredientsPath != "" {
		load(*ingredientsPath, func(ctx context.Context, f *os.File) (int64, error) {
			return catalog.ImportIngredients(ctx, f)
		})
	}
	if *tagsPath != "" {
		load(*tagsPath, func(ctx context.Context, f *os.File) (int64, error) {
			return catalog.ImportTags(ctx, f)
		})
	}
}
