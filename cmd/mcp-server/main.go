// Package main provides the standalone MCP entry point. It needs no external database:
// the therapy catalog comes from a file or a SQLite database in the data directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/app"
	"github.com/prime-cvd-risk/internal/config"
	"github.com/prime-cvd-risk/internal/domain"
	"github.com/prime-cvd-risk/internal/mcp"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()
	logger := config.NewLogger(cfg.Logging())

	logger.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"data_dir":  cfg.DataDir,
	}).Info("Starting PRIME CVD risk MCP server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	classes, err := app.LoadLiteCatalog(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load therapy catalog")
	}

	engine, err := app.NewEngine(classes, domain.DefaultEngineConfig(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build risk engine")
	}

	server, err := mcp.NewServer(engine,
		mcp.WithLogger(logger),
		mcp.WithTransport(cfg.Transport, cfg.HTTPPort),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("MCP server stopped")
}
