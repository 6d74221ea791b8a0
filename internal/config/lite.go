// Package config provides configuration management for the risk engine binaries.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/prime-cvd-risk/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the catalog database and exports

	// Catalog
	CatalogFile string // Optional: JSON or YAML therapy catalog loaded at startup

	// Transport settings
	Transport string // Transport type: stdio, http
	HTTPPort  int    // HTTP port (if transport is http)

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".prime-cvd-risk")

	return &LiteConfig{
		DataDir:   dataDir,
		Transport: "stdio",
		HTTPPort:  8081,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory
	if v := os.Getenv("PRIME_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Catalog
	cfg.CatalogFile = os.Getenv("PRIME_CATALOG_FILE")

	// Transport
	if v := os.Getenv("PRIME_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PRIME_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("PRIME_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRIME_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// Logging returns the logging section equivalent of the lite settings.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// CatalogDBPath returns the path to the therapy catalog SQLite database.
func (c *LiteConfig) CatalogDBPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// ExportDir returns the directory for catalog exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
