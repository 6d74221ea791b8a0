package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Environment    string        `mapstructure:"environment"`
}

// DatabaseConfig represents catalog store configuration
type DatabaseConfig struct {
	Backend         string        `mapstructure:"backend"` // sqlite or postgres
	SQLitePath      string        `mapstructure:"sqlite_path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
	TransportType string `mapstructure:"transport_type"` // stdio or http
	HTTPPort      int    `mapstructure:"http_port"`
}

// RateLimitConfig represents per-client request limits for the HTTP API
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CatalogConfig selects where the therapy catalog is loaded from at startup
type CatalogConfig struct {
	Source   string `mapstructure:"source"` // builtin, store or file
	FilePath string `mapstructure:"file_path"`
}

// Catalog sources
const (
	CatalogSourceBuiltin = "builtin"
	CatalogSourceStore   = "store"
	CatalogSourceFile    = "file"
)

// EngineConfig carries every clinical parameter of the engine. It is built once and
// passed by value; the engine never consults global state.
type EngineConfig struct {
	Bounds         CovariateBounds      `mapstructure:"bounds"`
	Risk           RiskCoefficients     `mapstructure:"risk"`
	LDL            LDLModelConfig       `mapstructure:"ldl"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// RiskCoefficients parameterises the linear predictor and link of the risk model.
// Continuous covariates are centred on the reference values so the intercept is the
// log-odds of 10-year recurrence for the reference patient.
type RiskCoefficients struct {
	Intercept float64 `mapstructure:"intercept"`

	AgeRef float64 `mapstructure:"age_ref"`
	Age    float64 `mapstructure:"age"` // per year

	Male     float64 `mapstructure:"male"`
	Smoker   float64 `mapstructure:"smoker"`
	Diabetes float64 `mapstructure:"diabetes"`

	SBPRef float64 `mapstructure:"sbp_ref"`
	SBP    float64 `mapstructure:"sbp"` // per 10 mmHg

	TotalCholesterolRef float64 `mapstructure:"total_cholesterol_ref"`
	TotalCholesterol    float64 `mapstructure:"total_cholesterol"` // per mmol/L

	HDLRef float64 `mapstructure:"hdl_ref"`
	HDL    float64 `mapstructure:"hdl"` // per mmol/L

	LDLRef float64 `mapstructure:"ldl_ref"`
	LDL    float64 `mapstructure:"ldl"` // per mmol/L

	// Renal impairment contributes only below the threshold, per 10 mL/min of deficit.
	EGFRThreshold float64 `mapstructure:"egfr_threshold"`
	EGFRDeficit   float64 `mapstructure:"egfr_deficit"`

	LogCRP float64 `mapstructure:"log_crp"` // per ln(mg/L)

	// VascularBeds[n] is the cumulative term for n affected territories; non-decreasing.
	VascularBeds []float64 `mapstructure:"vascular_beds"`
}

// LDLModelConfig bounds the combined effect of lipid-lowering therapy.
type LDLModelConfig struct {
	Floor                float64 `mapstructure:"floor"`                  // mmol/L
	MaxCombinedReduction float64 `mapstructure:"max_combined_reduction"` // fraction of baseline
}

// RecommendationConfig holds the thresholds used to rank guidance.
type RecommendationConfig struct {
	HighRisk              float64 `mapstructure:"high_risk"`      // % 10-year risk
	VeryHighRisk          float64 `mapstructure:"very_high_risk"` // %
	ExtremeRisk           float64 `mapstructure:"extreme_risk"`   // %
	LDLGoal               float64 `mapstructure:"ldl_goal"`       // mmol/L
	LDLGoalReduction      float64 `mapstructure:"ldl_goal_reduction"`
	EscalateBelowRelative float64 `mapstructure:"escalate_below_relative"`
	SBPTarget             float64 `mapstructure:"sbp_target"`
	InflammationThreshold float64 `mapstructure:"inflammation_threshold"`
	RenalImpairmentEGFR   float64 `mapstructure:"renal_impairment_egfr"`
}

// DefaultEngineConfig returns the documented default clinical parameters.
//
// Coefficients are log-odds weights calibrated so that the reference post-MI patient
// (60 years, female, non-smoker, no diabetes, SBP 130, TC 5.0, HDL 1.3, LDL 2.6,
// eGFR >= 60, hs-CRP 1 mg/L, no further vascular beds) has a 10-year recurrence risk of
// about 12%. The LDL-C weight of 0.25 per mmol/L reproduces the CTT estimate of a
// ~22% lower event rate per 1 mmol/L LDL-C reduction.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Bounds: DefaultCovariateBounds(),
		Risk: RiskCoefficients{
			Intercept:           -2.0,
			AgeRef:              60,
			Age:                 0.04,
			Male:                0.16,
			Smoker:              0.35,
			Diabetes:            0.45,
			SBPRef:              130,
			SBP:                 0.04,
			TotalCholesterolRef: 5.0,
			TotalCholesterol:    0.03,
			HDLRef:              1.3,
			HDL:                 -0.25,
			LDLRef:              2.6,
			LDL:                 0.25,
			EGFRThreshold:       60,
			EGFRDeficit:         0.12,
			LogCRP:              0.14,
			VascularBeds:        []float64{0, 0.25, 0.55, 0.90},
		},
		LDL: LDLModelConfig{
			Floor:                0.5,
			MaxCombinedReduction: 0.85,
		},
		Recommendation: RecommendationConfig{
			HighRisk:              10,
			VeryHighRisk:          20,
			ExtremeRisk:           30,
			LDLGoal:               1.4,
			LDLGoalReduction:      0.5,
			EscalateBelowRelative: 0.2,
			SBPTarget:             130,
			InflammationThreshold: 2.0,
			RenalImpairmentEGFR:   60,
		},
	}
}
