package service

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime-cvd-risk/internal/domain"
)

func TestLogisticRiskModel_ReferenceScenario(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())
	profile := referenceProfile()

	assert.InDelta(t, -0.953, model.LinearPredictor(profile), 1e-3)

	risk, ok := model.ComputeRisk(profile)
	require.True(t, ok)
	assert.InDelta(t, 27.83, risk, 0.01)
	assert.Equal(t, domain.VERY_HIGH, model.Tier(risk))

	treated, ok := model.ComputeRisk(profile.WithLDL(1.75))
	require.True(t, ok)
	assert.InDelta(t, 19.93, treated, 0.01)
	assert.Equal(t, domain.HIGH, model.Tier(treated))
}

func TestLogisticRiskModel_ContributionsSumToLinearPredictor(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())
	profile := referenceProfile()
	profile.Smoker = true
	profile.EGFR = 40
	profile.PAD = true

	contributions := model.Contributions(profile)
	require.Len(t, contributions, 12)
	assert.Equal(t, "intercept", contributions[0].Covariate)

	sum := 0.0
	terms := make(map[string]float64)
	for _, c := range contributions {
		sum += c.Term
		terms[c.Covariate] = c.Term
	}
	assert.InDelta(t, model.LinearPredictor(profile), sum, 1e-12)
	assert.InDelta(t, 0.35, terms["smoker"], 1e-12)
	assert.InDelta(t, 0.24, terms["egfr"], 1e-12)
	assert.InDelta(t, 0.55, terms["vascular_beds"], 1e-12)
	assert.InDelta(t, 0.0, terms["diabetes"], 1e-12)
}

func TestLogisticRiskModel_StaysWithinBounds(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())
	bounds := domain.DefaultCovariateBounds()
	rng := rand.New(rand.NewSource(42))

	sample := func(r domain.Range) float64 {
		return r.Min + rng.Float64()*(r.Max-r.Min)
	}

	for i := 0; i < 2000; i++ {
		profile := domain.PatientProfile{
			Age:              int(sample(bounds.Age)),
			Sex:              []domain.Sex{domain.MALE, domain.FEMALE}[rng.Intn(2)],
			Smoker:           rng.Intn(2) == 1,
			Diabetes:         rng.Intn(2) == 1,
			CAD:              rng.Intn(2) == 1,
			Stroke:           rng.Intn(2) == 1,
			PAD:              rng.Intn(2) == 1,
			SystolicBP:       sample(bounds.SystolicBP),
			TotalCholesterol: sample(bounds.TotalCholesterol),
			HDL:              sample(bounds.HDL),
			LDL:              sample(bounds.LDL),
			EGFR:             sample(bounds.EGFR),
			HsCRP:            sample(bounds.HsCRP),
		}

		risk, ok := model.ComputeRisk(profile)
		require.True(t, ok, "profile %+v", profile)
		assert.GreaterOrEqual(t, risk, 0.0)
		assert.LessOrEqual(t, risk, 100.0)
	}
}

func TestLogisticRiskModel_Saturation(t *testing.T) {
	for _, tt := range []struct {
		name      string
		intercept float64
		expected  float64
	}{
		{"Large positive predictor", 1000, 100},
		{"Large negative predictor", -1000, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			config := domain.DefaultEngineConfig()
			config.Risk.Intercept = tt.intercept
			model := NewLogisticRiskModel(config)

			risk, ok := model.ComputeRisk(referenceProfile())
			require.True(t, ok)
			assert.Equal(t, tt.expected, risk)
		})
	}
}

func TestLogisticRiskModel_RejectsInvalidProfiles(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())

	incomplete := referenceProfile()
	incomplete.HsCRP = 0
	_, ok := model.ComputeRisk(incomplete)
	assert.False(t, ok)

	outOfRange := referenceProfile()
	outOfRange.SystolicBP = 260
	_, ok = model.ComputeRisk(outOfRange)
	assert.False(t, ok)

	_, ok = model.ComputeRisk(domain.PatientProfile{})
	assert.False(t, ok)
}

func TestLogisticRiskModel_RiskRisesWithLDL(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())
	profile := referenceProfile()

	previous := -1.0
	for ldl := 0.5; ldl <= 6.0; ldl += 0.25 {
		risk, ok := model.ComputeRisk(profile.WithLDL(ldl))
		require.True(t, ok)
		assert.Greater(t, risk, previous)
		previous = risk
	}
}

func TestLogisticRiskModel_RiskRisesWithVascularBeds(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())
	profile := referenceProfile()
	profile.CAD = false

	none, _ := model.ComputeRisk(profile)
	profile.CAD = true
	one, _ := model.ComputeRisk(profile)
	profile.Stroke = true
	two, _ := model.ComputeRisk(profile)
	profile.PAD = true
	three, _ := model.ComputeRisk(profile)

	assert.Less(t, none, one)
	assert.Less(t, one, two)
	assert.Less(t, two, three)
}

func TestLogisticRiskModel_Tier(t *testing.T) {
	model := NewLogisticRiskModel(domain.DefaultEngineConfig())

	tests := []struct {
		risk     float64
		expected domain.RiskTier
	}{
		{0, domain.LOW_MODERATE},
		{9.99, domain.LOW_MODERATE},
		{10, domain.HIGH},
		{19.99, domain.HIGH},
		{20, domain.VERY_HIGH},
		{29.99, domain.VERY_HIGH},
		{30, domain.EXTREME},
		{100, domain.EXTREME},
		{math.NaN(), domain.UNKNOWN_TIER},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, model.Tier(tt.risk), "risk %v", tt.risk)
	}
}

func TestVascularBedTerm(t *testing.T) {
	table := []float64{0, 0.25, 0.55}

	assert.Equal(t, 0.0, vascularBedTerm(table, 0))
	assert.Equal(t, 0.55, vascularBedTerm(table, 2))
	assert.Equal(t, 0.55, vascularBedTerm(table, 3))
	assert.Equal(t, 0.0, vascularBedTerm(nil, 2))
}
