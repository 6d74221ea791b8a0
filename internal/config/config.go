package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/prime-cvd-risk/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerWithFile("")
}

// NewManagerWithFile creates a configuration manager that reads the given file instead of
// searching the default locations. An empty path searches as NewManager does.
func NewManagerWithFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	// Set configuration file name and paths
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/prime-cvd-risk/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix("PRIME_CVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal configuration into struct
	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("database.backend", "sqlite")
	v.SetDefault("database.sqlite_path", "prime-cvd-risk.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "prime_cvd_risk")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "30m")
	v.SetDefault("database.migrations_path", "") // empty uses the embedded migrations

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "prime-cvd-risk")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.transport_type", "stdio")
	v.SetDefault("mcp.http_port", 8081)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	// Catalog defaults
	v.SetDefault("catalog.source", domain.CatalogSourceBuiltin)
	v.SetDefault("catalog.file_path", "")

	setEngineDefaults(v, domain.DefaultEngineConfig())
}

// setEngineDefaults registers every clinical parameter so each can be overridden by file
// or environment.
func setEngineDefaults(v *viper.Viper, e domain.EngineConfig) {
	ranges := map[string]domain.Range{
		"age":               e.Bounds.Age,
		"systolic_bp":       e.Bounds.SystolicBP,
		"total_cholesterol": e.Bounds.TotalCholesterol,
		"hdl":               e.Bounds.HDL,
		"ldl":               e.Bounds.LDL,
		"egfr":              e.Bounds.EGFR,
		"hs_crp":            e.Bounds.HsCRP,
	}
	for name, r := range ranges {
		v.SetDefault("engine.bounds."+name+".min", r.Min)
		v.SetDefault("engine.bounds."+name+".max", r.Max)
	}

	r := e.Risk
	v.SetDefault("engine.risk.intercept", r.Intercept)
	v.SetDefault("engine.risk.age_ref", r.AgeRef)
	v.SetDefault("engine.risk.age", r.Age)
	v.SetDefault("engine.risk.male", r.Male)
	v.SetDefault("engine.risk.smoker", r.Smoker)
	v.SetDefault("engine.risk.diabetes", r.Diabetes)
	v.SetDefault("engine.risk.sbp_ref", r.SBPRef)
	v.SetDefault("engine.risk.sbp", r.SBP)
	v.SetDefault("engine.risk.total_cholesterol_ref", r.TotalCholesterolRef)
	v.SetDefault("engine.risk.total_cholesterol", r.TotalCholesterol)
	v.SetDefault("engine.risk.hdl_ref", r.HDLRef)
	v.SetDefault("engine.risk.hdl", r.HDL)
	v.SetDefault("engine.risk.ldl_ref", r.LDLRef)
	v.SetDefault("engine.risk.ldl", r.LDL)
	v.SetDefault("engine.risk.egfr_threshold", r.EGFRThreshold)
	v.SetDefault("engine.risk.egfr_deficit", r.EGFRDeficit)
	v.SetDefault("engine.risk.log_crp", r.LogCRP)
	v.SetDefault("engine.risk.vascular_beds", r.VascularBeds)

	v.SetDefault("engine.ldl.floor", e.LDL.Floor)
	v.SetDefault("engine.ldl.max_combined_reduction", e.LDL.MaxCombinedReduction)

	rec := e.Recommendation
	v.SetDefault("engine.recommendation.high_risk", rec.HighRisk)
	v.SetDefault("engine.recommendation.very_high_risk", rec.VeryHighRisk)
	v.SetDefault("engine.recommendation.extreme_risk", rec.ExtremeRisk)
	v.SetDefault("engine.recommendation.ldl_goal", rec.LDLGoal)
	v.SetDefault("engine.recommendation.ldl_goal_reduction", rec.LDLGoalReduction)
	v.SetDefault("engine.recommendation.escalate_below_relative", rec.EscalateBelowRelative)
	v.SetDefault("engine.recommendation.sbp_target", rec.SBPTarget)
	v.SetDefault("engine.recommendation.inflammation_threshold", rec.InflammationThreshold)
	v.SetDefault("engine.recommendation.renal_impairment_egfr", rec.RenalImpairmentEGFR)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetEngineConfig returns a copy of the clinical parameters
func (m *Manager) GetEngineConfig() domain.EngineConfig {
	engine := m.config.Engine
	engine.Risk.VascularBeds = append([]float64(nil), engine.Risk.VascularBeds...)
	return engine
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate database configuration
	switch config.Database.Backend {
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("invalid database backend: %s", config.Database.Backend)
	}

	// Validate MCP transport
	switch config.MCP.TransportType {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid MCP transport: %s", config.MCP.TransportType)
	}

	// Validate catalog source
	switch config.Catalog.Source {
	case domain.CatalogSourceBuiltin, domain.CatalogSourceStore:
	case domain.CatalogSourceFile:
		if config.Catalog.FilePath == "" {
			return fmt.Errorf("catalog file path is required when catalog source is %q", domain.CatalogSourceFile)
		}
	default:
		return fmt.Errorf("invalid catalog source: %s", config.Catalog.Source)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return ValidateEngine(config.Engine)
}

// ValidateEngine checks that the clinical parameters are internally consistent.
func ValidateEngine(e domain.EngineConfig) error {
	ranges := []struct {
		name string
		r    domain.Range
	}{
		{"age", e.Bounds.Age},
		{"systolic_bp", e.Bounds.SystolicBP},
		{"total_cholesterol", e.Bounds.TotalCholesterol},
		{"hdl", e.Bounds.HDL},
		{"ldl", e.Bounds.LDL},
		{"egfr", e.Bounds.EGFR},
		{"hs_crp", e.Bounds.HsCRP},
	}
	for _, b := range ranges {
		if b.r.Min <= 0 || b.r.Min >= b.r.Max {
			return fmt.Errorf("invalid bounds for %s: [%g, %g]", b.name, b.r.Min, b.r.Max)
		}
	}

	if e.LDL.Floor <= 0 {
		return fmt.Errorf("LDL floor must be positive: %g", e.LDL.Floor)
	}
	if e.LDL.Floor < e.Bounds.LDL.Min {
		return fmt.Errorf("LDL floor %g is below the LDL-C lower bound %g", e.LDL.Floor, e.Bounds.LDL.Min)
	}
	if e.LDL.MaxCombinedReduction < 0 || e.LDL.MaxCombinedReduction >= 1 {
		return fmt.Errorf("max combined reduction must be in [0,1): %g", e.LDL.MaxCombinedReduction)
	}

	for i := 1; i < len(e.Risk.VascularBeds); i++ {
		if e.Risk.VascularBeds[i] < e.Risk.VascularBeds[i-1] {
			return fmt.Errorf("vascular bed terms must be non-decreasing: %v", e.Risk.VascularBeds)
		}
	}

	rec := e.Recommendation
	if !(rec.HighRisk > 0 && rec.HighRisk < rec.VeryHighRisk && rec.VeryHighRisk < rec.ExtremeRisk && rec.ExtremeRisk <= 100) {
		return fmt.Errorf("risk tier thresholds must increase within (0,100]: %g, %g, %g",
			rec.HighRisk, rec.VeryHighRisk, rec.ExtremeRisk)
	}
	if rec.LDLGoal <= 0 {
		return fmt.Errorf("LDL goal must be positive: %g", rec.LDLGoal)
	}
	if rec.LDLGoalReduction < 0 || rec.LDLGoalReduction >= 1 {
		return fmt.Errorf("LDL goal reduction must be in [0,1): %g", rec.LDLGoalReduction)
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Server.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Server.Environment)
	return env == "development" || env == "dev" || env == ""
}
