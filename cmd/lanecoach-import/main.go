package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/lanecoach/internal/config"
	"github.com/claude/lanecoach/internal/importer"
	"github.com/claude/lanecoach/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	fitPath := flag.String("path", "", "directory of .fit swim files (required)")
	dryRun := flag.Bool("dry-run", false, "analyze files without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *fitPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: lanecoach-import -config config.yaml -path /path/to/fit-files [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*fitPath)
	if err != nil || !info.IsDir() {
		log.Error("path does not exist or is not a directory", "path", *fitPath)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn, log)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	imp := importer.New(db, log, cfg.Import.Timeout(), *dryRun)
	stats, err := imp.ImportDir(ctx, *fitPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_inserted", stats.SessionsInserted,
		"sessions_duplicated", stats.SessionsDuplicated,
		"laps_built", stats.LapsBuilt,
	)
}
