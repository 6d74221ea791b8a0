package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime-cvd-risk/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Backend)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, "stdio", cfg.MCP.TransportType)
	assert.Equal(t, domain.CatalogSourceBuiltin, cfg.Catalog.Source)
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())

	assert.Equal(t, domain.DefaultEngineConfig(), m.GetEngineConfig())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PRIME_CVD_SERVER_PORT", "9999")
	t.Setenv("PRIME_CVD_SERVER_ENVIRONMENT", "production")
	t.Setenv("PRIME_CVD_DATABASE_BACKEND", "postgres")
	t.Setenv("PRIME_CVD_ENGINE_LDL_FLOOR", "0.6")
	t.Setenv("PRIME_CVD_ENGINE_RECOMMENDATION_LDL_GOAL", "1.8")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, 9999, m.GetServerConfig().Port)
	assert.Equal(t, "postgres", m.GetDatabaseConfig().Backend)
	assert.True(t, m.IsProduction())

	engine := m.GetEngineConfig()
	assert.Equal(t, 0.6, engine.LDL.Floor)
	assert.Equal(t, 1.8, engine.Recommendation.LDLGoal)
}

func TestNewManagerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
database:
  backend: postgres
  host: db.internal
  database: prime
catalog:
  source: file
  file_path: /etc/prime/catalog.yaml
engine:
  ldl:
    max_combined_reduction: 0.8
  risk:
    vascular_beds: [0, 0.3, 0.6, 1.0]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := NewManagerWithFile(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, domain.CatalogSourceFile, cfg.Catalog.Source)

	engine := m.GetEngineConfig()
	assert.Equal(t, 0.8, engine.LDL.MaxCombinedReduction)
	assert.Equal(t, []float64{0, 0.3, 0.6, 1.0}, engine.Risk.VascularBeds)
	// Keys absent from the file keep their defaults
	assert.Equal(t, 0.5, engine.LDL.Floor)
	assert.Equal(t, -2.0, engine.Risk.Intercept)

	assert.Equal(t, "host=db.internal port=5432 user=postgres password= dbname=prime sslmode=disable",
		m.GetDatabaseConnectionString())
}

func TestNewManagerWithFile_Missing(t *testing.T) {
	_, err := NewManagerWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestManager_GetEngineConfigReturnsCopy(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	engine := m.GetEngineConfig()
	engine.Risk.VascularBeds[1] = 99

	assert.Equal(t, 0.25, m.GetEngineConfig().Risk.VascularBeds[1])
}

func TestManager_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *domain.Config)
	}{
		{"Invalid port", func(cfg *domain.Config) { cfg.Server.Port = 70000 }},
		{"Unknown backend", func(cfg *domain.Config) { cfg.Database.Backend = "mysql" }},
		{"Postgres without host", func(cfg *domain.Config) {
			cfg.Database.Backend = "postgres"
			cfg.Database.Host = ""
		}},
		{"Unknown transport", func(cfg *domain.Config) { cfg.MCP.TransportType = "websocket" }},
		{"File catalog without path", func(cfg *domain.Config) { cfg.Catalog.Source = domain.CatalogSourceFile }},
		{"Invalid log level", func(cfg *domain.Config) { cfg.Logging.Level = "verbose" }},
		{"Floor below LDL bound", func(cfg *domain.Config) { cfg.Engine.LDL.Floor = 0.3 }},
		{"Cap out of range", func(cfg *domain.Config) { cfg.Engine.LDL.MaxCombinedReduction = 1.0 }},
		{"Inverted bounds", func(cfg *domain.Config) { cfg.Engine.Bounds.HDL = domain.Range{Min: 3, Max: 0.5} }},
		{"Decreasing vascular beds", func(cfg *domain.Config) { cfg.Engine.Risk.VascularBeds = []float64{0, 0.5, 0.2} }},
		{"Unordered tiers", func(cfg *domain.Config) { cfg.Engine.Recommendation.VeryHighRisk = 35 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager()
			require.NoError(t, err)
			tt.mutate(m.GetConfig())
			assert.Error(t, m.Validate())
		})
	}
}

func TestValidateEngine_Defaults(t *testing.T) {
	assert.NoError(t, ValidateEngine(domain.DefaultEngineConfig()))
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(domain.LoggingConfig{Level: "debug"}, &buf)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

		logger.WithField("selection", "statin_high").Info("Risk evaluation completed")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Risk evaluation completed", entry["message"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "statin_high", entry["selection"])
		assert.Contains(t, entry, "timestamp")
	})

	t.Run("Text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(domain.LoggingConfig{Level: "info", Format: "text"}, &buf)
		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("Invalid level falls back to info", func(t *testing.T) {
		logger := NewLogger(domain.LoggingConfig{Level: "loud"})
		assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	})
}
