package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/storage/sqlite"
	"github.com/agri-platform/subsidy-matcher/pkg/config"
	appLogger "github.com/agri-platform/subsidy-matcher/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.SQLite.Path, "Path to the SQLite database")
	file := flag.String("file", "", "Catalog JSON file to import (default: built-in seed catalog)")
	validateOnly := flag.Bool("validate", false, "Validate the catalog without writing it")
	flag.Parse()

	if err := appLogger.Init(cfg.Logging.Level, "console", "stdout"); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	cat := catalog.SeedCatalog()
	source := "seed"
	if *file != "" {
		cat, err = catalog.LoadFile(*file)
		if err != nil {
			appLogger.Fatal("Invalid catalog file", zap.String("file", *file), zap.Error(err))
		}
		source = *file
	}

	appLogger.Info("Catalog validated",
		zap.String("source", source),
		zap.Int("subsidies", cat.Len()),
		zap.Int("categories", len(cat.Categories())),
	)
	if *validateOnly {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := sqlite.NewClient(*dbPath)
	if err != nil {
		appLogger.Fatal("Failed to open SQLite store", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	if err := store.SaveSubsidies(ctx, cat.All()); err != nil {
		appLogger.Fatal("Failed to save catalog", zap.Error(err))
	}

	appLogger.Info("Catalog imported", zap.String("db", *dbPath), zap.Int("subsidies", cat.Len()))
}
