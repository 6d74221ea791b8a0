// Package domain contains core entities and types for secondary-prevention cardiovascular
// risk estimation after myocardial infarction and for projecting the effect of
// lipid-lowering therapy on that risk.
//
// The risk model follows the structure of the SMART recurrent-event score (Dorresteijn et al.,
// Heart 2013;99:866-872); the LDL-C effect of therapy follows the Cholesterol Treatment
// Trialists' meta-analyses (Lancet 2010;376:1670-81) and the 2019 ESC/EAS dyslipidaemia
// guidelines (Eur Heart J 2020;41:111-188).
package domain

import (
	"errors"
	"strings"
)

// Sex is the patient's biological sex as used by the risk model.
type Sex string

const (
	MALE   Sex = "MALE"
	FEMALE Sex = "FEMALE"
)

// TherapyCategory groups lipid-lowering therapy classes by mechanism.
type TherapyCategory string

const (
	STATIN         TherapyCategory = "STATIN"
	EZETIMIBE      TherapyCategory = "EZETIMIBE"
	PCSK9_PATHWAY  TherapyCategory = "PCSK9_PATHWAY"
	BEMPEDOIC_ACID TherapyCategory = "BEMPEDOIC_ACID"
	OTHER_THERAPY  TherapyCategory = "OTHER"
)

// CombinationRule describes how a therapy's percentage reduction combines with the
// reductions already applied by higher-potency classes.
type CombinationRule string

const (
	// MULTIPLICATIVE reduces the remaining LDL-C fraction: remaining *= (1 - reduction).
	MULTIPLICATIVE CombinationRule = "MULTIPLICATIVE"
	// ADDITIVE subtracts the reduction from the remaining fraction of the baseline.
	ADDITIVE CombinationRule = "ADDITIVE"
	// CAPPED is multiplicative but never takes the combined reduction past the class cap.
	CAPPED CombinationRule = "CAPPED"
)

// RiskTier is the absolute 10-year risk band used for guidance.
type RiskTier string

const (
	LOW_MODERATE RiskTier = "LOW_MODERATE"
	HIGH         RiskTier = "HIGH"
	VERY_HIGH    RiskTier = "VERY_HIGH"
	EXTREME      RiskTier = "EXTREME"
	UNKNOWN_TIER RiskTier = "UNKNOWN"
)

// ResultStatus tags a RiskResult as computed or declined.
type ResultStatus string

const (
	AVAILABLE   ResultStatus = "AVAILABLE"
	UNAVAILABLE ResultStatus = "UNAVAILABLE"
)

// Sentinel errors
var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownTherapy     = errors.New("unknown therapy class")
	ErrExclusiveTherapies = errors.New("mutually exclusive therapy classes selected")
	ErrNonPositiveLDL     = errors.New("baseline LDL-C must be positive")
	ErrInvalidCatalog     = errors.New("invalid therapy catalog entry")
)

// IsValid reports whether s is a known sex.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sex.
func (s Sex) String() string {
	return string(s)
}

// UnmarshalText accepts any letter case, so "Male" decodes as MALE.
func (s *Sex) UnmarshalText(text []byte) error {
	*s = Sex(strings.ToUpper(strings.TrimSpace(string(text))))
	return nil
}

// IsValid reports whether the category is known.
func (c TherapyCategory) IsValid() bool {
	switch c {
	case STATIN, EZETIMIBE, PCSK9_PATHWAY, BEMPEDOIC_ACID, OTHER_THERAPY:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c TherapyCategory) String() string {
	return string(c)
}

// IsValid reports whether the combination rule is known.
func (r CombinationRule) IsValid() bool {
	switch r {
	case MULTIPLICATIVE, ADDITIVE, CAPPED:
		return true
	default:
		return false
	}
}

// String returns the string representation of the combination rule.
func (r CombinationRule) String() string {
	return string(r)
}

// IsValid reports whether the tier is a known, computed tier.
func (t RiskTier) IsValid() bool {
	switch t {
	case LOW_MODERATE, HIGH, VERY_HIGH, EXTREME:
		return true
	default:
		return false
	}
}

// String returns the string representation of the tier.
func (t RiskTier) String() string {
	return string(t)
}

// Description returns a human-readable label for reports.
func (t RiskTier) Description() string {
	switch t {
	case LOW_MODERATE:
		return "Low to moderate recurrent-event risk"
	case HIGH:
		return "High recurrent-event risk"
	case VERY_HIGH:
		return "Very high recurrent-event risk"
	case EXTREME:
		return "Extreme recurrent-event risk"
	default:
		return "Risk not available"
	}
}

// LogFields returns structured logging fields for the tier.
func (t RiskTier) LogFields() map[string]any {
	return map[string]any{
		"risk_tier":   string(t),
		"description": t.Description(),
		"is_valid":    t.IsValid(),
	}
}
