package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/lanecoach/internal/config"
	"github.com/claude/lanecoach/internal/mcp"
	"github.com/claude/lanecoach/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	serverURL := flag.String("server", "", "lanecoach server URL (remote mode)")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: lanecoach-mcp (-config config.yaml | -server <URL>)\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		planCfg, err := cfg.Planner.Build()
		if err != nil {
			log.Error("invalid plan", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(ctx, cfg.Database.DSN(), log)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = mcp.NewLocal(db, planCfg)
		log.Info("local mode", "database", cfg.Database.Name)
	}

	srv := mcp.New(ds, Version, log)
	if err := server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
