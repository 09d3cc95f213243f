package main

import (
	"log"

	"github.com/alkime/pagenotes/internal/config"
	"github.com/alkime/pagenotes/internal/logger"
	"github.com/alkime/pagenotes/internal/metrics"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/alkime/pagenotes/internal/server"
	"github.com/alkime/pagenotes/internal/workdir"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	slogger := logger.SetupLogger(cfg)

	dataDir := cfg.DataDir
	if dataDir == "" {
		if dataDir, err = workdir.NotesDir(); err != nil {
			log.Fatalf("Failed to resolve data directory: %v", err)
		}
	}

	repo, err := repository.OpenFile(dataDir, slogger)
	if err != nil {
		slogger.Error("Failed to open note repository", "dir", dataDir, "error", err)
		log.Fatalf("Fatal: %v", err)
	}

	slogger.Info("Starting pagenotes server",
		"env", cfg.Env,
		"port", cfg.Port,
		"data_dir", dataDir,
		"auth", cfg.APIToken != "",
	)

	srv, err := server.New(cfg, repo, metrics.NewMetrics(), slogger)
	if err != nil {
		slogger.Error("Failed to create server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}

	if err := server.Run(srv); err != nil {
		slogger.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
