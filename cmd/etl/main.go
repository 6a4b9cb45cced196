// Package main runs the GDP ETL job end to end: fetch the archived page,
// extract the GDP table, write the CSV and database, and log the countries
// above the threshold.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gdpetl/internal/config"
	"gdpetl/internal/logger"
	"gdpetl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Configuration
	// ----------------
	cfg, found, err := config.LoadOrDefault(config.DefaultPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)

		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid config: %v\n", err)

		return 1
	}

	// 2. Logging
	// ----------
	log, err := logger.NewFileLogger(cfg.Logging.Level, cfg.Output.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)

		return 1
	}
	defer log.Close()

	if found {
		log.Info("Configuration loaded", "path", config.DefaultPath)
	} else {
		log.Info("No configuration file found, using defaults", "path", config.DefaultPath)
	}

	log.Debug("Effective configuration", "config", cfg.String())

	// 3. Run
	// ------
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.New(cfg, log).Run(ctx)
	if err != nil {
		log.Error("ETL job failed", "error", err)

		return 1
	}

	log.Info("Summary",
		"input_rows", summary.InputRows,
		"output_rows", summary.OutputRows,
		"dropped_rows", summary.DroppedRows,
		"matched_rows", summary.MatchedRows,
		"duration", summary.Duration,
	)

	return 0
}
