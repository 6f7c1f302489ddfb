// Command importer seeds the dish catalog from a region/country/dishes file.
//
// Usage:
//
//	importer -file data/dishes.json
//	DISHES_FILE=data/dishes.yaml importer
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tbourn/recipe-roulette/internal/config"
	"github.com/tbourn/recipe-roulette/internal/importer"
	"github.com/tbourn/recipe-roulette/internal/repo"
	"github.com/tbourn/recipe-roulette/internal/sysutil"
)

func main() {
	file := flag.String("file", "", "Catalog file (.json, .yaml or .yml)")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr, "recipe-roulette-importer")

	path := sysutil.FirstNonEmpty(*file, os.Getenv("DISHES_FILE"), "data/dishes.json")
	cat, err := importer.Load(path)
	if err != nil {
		logger.Fatal().Err(err).Str("file", path).Msg("load catalog")
	}

	db, err := repo.Open(cfg.DB, false)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("file", path).Int("regions", len(cat)).Msg("import started")
	im := &importer.Importer{DB: db, Logger: logger, ProgressEvery: 50}
	sum, err := im.Run(ctx, cat)
	if err != nil {
		logger.Error().Err(err).Int("imported", sum.Imported).Msg("import interrupted")
		return
	}
	if sum.Failed > 0 {
		logger.Warn().Int("failed", sum.Failed).Msg("some dishes failed to import")
	}
}
