package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/claude/lanecoach/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "lanecoach server URL (e.g. https://lanecoach.tail1234.ts.net)")
	fitPath := flag.String("path", "", "directory of .fit swim files")
	stateDir := flag.String("state-dir", "", "state directory (default ~/.lanecoach-upload)")
	apiKey := flag.String("api-key", os.Getenv("LANECOACH_AUTH_API_KEY"), "ingest API key")
	dryRun := flag.Bool("dry-run", false, "decode and convert but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("lanecoach-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *fitPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: lanecoach-upload -server <URL> -api-key <key> -path <dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !*dryRun && (*serverURL == "" || *apiKey == "") {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*fitPath)
	if err != nil || !info.IsDir() {
		log.Error("directory not found", "path", *fitPath)
		os.Exit(1)
	}

	if *stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		*stateDir = filepath.Join(homeDir, ".lanecoach-upload")
	}

	state, err := upload.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = state.Close() }()

	if last, err := state.LastRun(); err == nil && !last.IsZero() {
		log.Info("previous upload", "at", last.Local().Format(time.RFC1123))
	}
	if *dryRun {
		log.Info("DRY RUN mode: files will be decoded and converted but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(*serverURL, *apiKey), state, *fitPath, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded or not a swim)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Workouts:         %d\n", stats.WorkoutsSent)
	fmt.Printf("  Lengths:          %d\n", stats.LengthsSent)
	fmt.Printf("  Stroke samples:   %d\n", stats.StrokesSent)
	fmt.Printf("  Heart rate:       %d\n", stats.HeartRateSent)
	fmt.Println()
}
