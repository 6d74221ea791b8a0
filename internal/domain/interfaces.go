package domain

import (
	"context"
)

// TherapyCatalog is the read-only registry of lipid-lowering therapy classes
type TherapyCatalog interface {
	ListTherapies() []TherapyClass
	Lookup(id string) (TherapyClass, bool)
	Validate(selection TherapySelection) (TherapySelection, error)
	// Ordered returns the selected classes in canonical potency order.
	Ordered(selection TherapySelection) []TherapyClass
}

// LDLEffectModel projects LDL-C under a therapy selection
type LDLEffectModel interface {
	ComputeAdjustedLDL(baselineLDL float64, selection TherapySelection) (float64, error)
	Project(baselineLDL float64, selection TherapySelection) (*LDLProjection, error)
	Trajectory(baselineLDL float64, selection TherapySelection) ([]LDLStep, error)
}

// RiskModel computes the 10-year recurrent-event risk percentage
type RiskModel interface {
	ComputeRisk(profile PatientProfile) (float64, bool)
	Contributions(profile PatientProfile) []Contribution
	Tier(risk float64) RiskTier
}

// RiskEvaluator orchestrates the baseline and projected evaluations
type RiskEvaluator interface {
	Evaluate(profile PatientProfile, selection TherapySelection) (*RiskResult, error)
	CompareRegimens(ctx context.Context, profile PatientProfile, candidates []TherapySelection) (*RegimenComparison, error)
}

// RecommendationGenerator maps a result to ranked guidance
type RecommendationGenerator interface {
	Generate(result *RiskResult) Recommendation
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetEngineConfig() EngineConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
