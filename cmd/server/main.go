// Package main is the entry point for the openlecture API server.
//
// main stays minimal. It:
//  1. loads configuration (environment, then .env)
//  2. builds the logger (text in development, JSON plus Sentry otherwise)
//  3. creates the server and blocks in Start until SIGINT/SIGTERM
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/openlecture/internal/config"
	"github.com/sakif/openlecture/internal/logger"
	"github.com/sakif/openlecture/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		logger.Flush()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	// SQLite needs its directory to exist; os.MkdirAll is `mkdir -p`.
	if cfg.StoreDriver == config.DriverSQLite {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dbDir, err)
		}
	}

	if !cfg.StorageEnabled() {
		log.Warn("S3_BUCKET not set, upload and playback URLs are disabled")
	}

	srv, err := server.New(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM)
	return srv.Start()
}
