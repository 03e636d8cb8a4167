package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"qualweave/internal/config"
	"qualweave/internal/exporter"
	"qualweave/internal/http"
	"qualweave/internal/importer"
	"qualweave/internal/storage"
	"qualweave/internal/transcript"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create router with dependencies
	deps := &http.Deps{
		DB:          db,
		Projects:    storage.NewProjectRepo(db),
		Files:       storage.NewFileRepo(db),
		Exports:     exporter.NewService(db),
		Imports:     importer.NewService(db),
		Transcripts: transcript.NewService(db),
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
