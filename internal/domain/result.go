package domain

import (
	"time"
)

// Contribution is one covariate's term in the risk model's linear predictor.
type Contribution struct {
	Covariate string  `json:"covariate"`
	Value     float64 `json:"value"`
	Term      float64 `json:"term"`
}

// LDLStep is the LDL-C value after applying one therapy class, in canonical potency order.
type LDLStep struct {
	TherapyID string          `json:"therapy_id"`
	Rule      CombinationRule `json:"rule"`
	Reduction float64         `json:"reduction"`
	LDL       float64         `json:"ldl"`
}

// LDLProjection is the full output of the LDL effect model.
type LDLProjection struct {
	BaselineLDL float64   `json:"baseline_ldl"`
	AdjustedLDL float64   `json:"adjusted_ldl"`
	Trajectory  []LDLStep `json:"trajectory"`
	// PercentReduction is 100 * (baseline - adjusted) / baseline.
	PercentReduction float64 `json:"percent_reduction"`
	FloorApplied     bool    `json:"floor_applied"`
	CapApplied       bool    `json:"cap_applied"`
}

// Unavailability explains why a RiskResult carries no risk values.
type Unavailability struct {
	Reason     string       `json:"reason"` // "incomplete" or "out_of_range"
	Missing    []string     `json:"missing,omitempty"`
	OutOfRange []FieldError `json:"out_of_range,omitempty"`
}

// Unavailability reasons
const (
	ReasonIncomplete = "incomplete"
	ReasonOutOfRange = "out_of_range"
)

// RiskResult is the engine's output for one (profile, selection) pair. Risk values are
// percentages in [0,100]; when Status is UNAVAILABLE they are nil.
type RiskResult struct {
	EvaluationID string           `json:"evaluation_id,omitempty"`
	Status       ResultStatus     `json:"status"`
	Unavailable  *Unavailability  `json:"unavailable,omitempty"`
	Selection    TherapySelection `json:"selection"`

	BaselineRisk      *float64 `json:"baseline_risk"`
	AdjustedRisk      *float64 `json:"adjusted_risk"`
	AbsoluteReduction *float64 `json:"absolute_reduction"`
	RelativeReduction *float64 `json:"relative_reduction"` // fraction of baseline risk, [0,1]
	BaselineTier      RiskTier `json:"baseline_tier"`
	AdjustedTier      RiskTier `json:"adjusted_tier"`

	BaselineLDL float64        `json:"baseline_ldl"`
	AdjustedLDL *float64       `json:"adjusted_ldl"`
	LDL         *LDLProjection `json:"ldl,omitempty"`
	// LDLGoalMet reports attainment of the very-high-risk LDL-C goal after therapy.
	LDLGoalMet bool `json:"ldl_goal_met"`

	Contributions []Contribution `json:"contributions,omitempty"`
	// Profile is the evaluated covariate set; never persisted.
	Profile  PatientProfile `json:"-"`
	Warnings []string       `json:"warnings,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// IsAvailable reports whether risk values were computed.
func (r *RiskResult) IsAvailable() bool {
	return r.Status == AVAILABLE
}

// Err reconstructs the typed validation error behind an unavailable result.
func (r *RiskResult) Err() error {
	if r.Unavailable == nil {
		return nil
	}
	switch r.Unavailable.Reason {
	case ReasonIncomplete:
		return &IncompleteInputError{Fields: r.Unavailable.Missing}
	case ReasonOutOfRange:
		return &OutOfRangeError{Fields: r.Unavailable.OutOfRange}
	default:
		return nil
	}
}

// Recommendation is an ordered list of guidance strings, most important first.
type Recommendation []string

// RegimenOutcome is one ranked entry of a regimen comparison.
type RegimenOutcome struct {
	Rank   int         `json:"rank"`
	Label  string      `json:"label"`
	Result *RiskResult `json:"result"`
}

// RegimenComparison ranks candidate selections by projected risk.
type RegimenComparison struct {
	BaselineRisk *float64         `json:"baseline_risk"`
	Outcomes     []RegimenOutcome `json:"outcomes"`
}

// Float returns a pointer to v for optional result fields.
func Float(v float64) *float64 {
	return &v
}
