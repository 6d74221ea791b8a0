package service

import (
	"math"

	"github.com/prime-cvd-risk/internal/domain"
)

// LogisticRiskModel estimates the 10-year risk of recurrent atherosclerotic events after
// myocardial infarction from a logistic linear predictor over the patient covariates.
// It is a pure function of its coefficients and holds no mutable state.
type LogisticRiskModel struct {
	coefficients domain.RiskCoefficients
	bounds       domain.CovariateBounds
	thresholds   domain.RecommendationConfig
}

// NewLogisticRiskModel creates a new risk model from the engine configuration
func NewLogisticRiskModel(config domain.EngineConfig) *LogisticRiskModel {
	return &LogisticRiskModel{
		coefficients: config.Risk,
		bounds:       config.Bounds,
		thresholds:   config.Recommendation,
	}
}

// ComputeRisk returns the 10-year risk percentage in [0,100]. The second result is false
// when the profile is incomplete or out of bounds; no value is produced in that case.
func (m *LogisticRiskModel) ComputeRisk(profile domain.PatientProfile) (float64, bool) {
	if err := profile.Validate(m.bounds); err != nil {
		return 0, false
	}

	risk := 100 / (1 + math.Exp(-m.linearPredictor(profile)))
	if math.IsNaN(risk) {
		return 0, false
	}
	return math.Max(0, math.Min(100, risk)), true
}

// Contributions returns each covariate's term in the linear predictor, intercept first.
// The terms sum to the linear predictor.
func (m *LogisticRiskModel) Contributions(profile domain.PatientProfile) []domain.Contribution {
	c := m.coefficients
	male := indicator(profile.Sex == domain.MALE)
	beds := profile.VascularBedCount()

	return []domain.Contribution{
		{Covariate: "intercept", Value: 1, Term: c.Intercept},
		{Covariate: "age", Value: float64(profile.Age), Term: c.Age * (float64(profile.Age) - c.AgeRef)},
		{Covariate: "sex", Value: male, Term: c.Male * male},
		{Covariate: "smoker", Value: indicator(profile.Smoker), Term: c.Smoker * indicator(profile.Smoker)},
		{Covariate: "diabetes", Value: indicator(profile.Diabetes), Term: c.Diabetes * indicator(profile.Diabetes)},
		{Covariate: "systolic_bp", Value: profile.SystolicBP, Term: c.SBP * (profile.SystolicBP - c.SBPRef) / 10},
		{Covariate: "total_cholesterol", Value: profile.TotalCholesterol, Term: c.TotalCholesterol * (profile.TotalCholesterol - c.TotalCholesterolRef)},
		{Covariate: "hdl", Value: profile.HDL, Term: c.HDL * (profile.HDL - c.HDLRef)},
		{Covariate: "ldl", Value: profile.LDL, Term: c.LDL * (profile.LDL - c.LDLRef)},
		{Covariate: "egfr", Value: profile.EGFR, Term: c.EGFRDeficit * math.Max(0, c.EGFRThreshold-profile.EGFR) / 10},
		{Covariate: "hs_crp", Value: profile.HsCRP, Term: c.LogCRP * math.Log(profile.HsCRP)},
		{Covariate: "vascular_beds", Value: float64(beds), Term: vascularBedTerm(c.VascularBeds, beds)},
	}
}

// Tier maps a risk percentage onto the clinical risk tiers.
func (m *LogisticRiskModel) Tier(risk float64) domain.RiskTier {
	switch {
	case math.IsNaN(risk):
		return domain.UNKNOWN_TIER
	case risk < m.thresholds.HighRisk:
		return domain.LOW_MODERATE
	case risk < m.thresholds.VeryHighRisk:
		return domain.HIGH
	case risk < m.thresholds.ExtremeRisk:
		return domain.VERY_HIGH
	default:
		return domain.EXTREME
	}
}

// LinearPredictor returns the log-odds for a profile without validating it.
func (m *LogisticRiskModel) LinearPredictor(profile domain.PatientProfile) float64 {
	return m.linearPredictor(profile)
}

func (m *LogisticRiskModel) linearPredictor(profile domain.PatientProfile) float64 {
	lp := 0.0
	for _, contribution := range m.Contributions(profile) {
		lp += contribution.Term
	}
	return lp
}

// vascularBedTerm looks up the cumulative polyvascular term; counts beyond the table use
// its last entry.
func vascularBedTerm(table []float64, beds int) float64 {
	if len(table) == 0 {
		return 0
	}
	if beds >= len(table) {
		beds = len(table) - 1
	}
	return table[beds]
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
