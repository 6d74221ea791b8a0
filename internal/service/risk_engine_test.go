package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prime-cvd-risk/internal/domain"
)

// MockRiskModel is a mock implementation of the domain.RiskModel interface
type MockRiskModel struct {
	mock.Mock
}

func (m *MockRiskModel) ComputeRisk(profile domain.PatientProfile) (float64, bool) {
	args := m.Called(profile)
	return args.Get(0).(float64), args.Bool(1)
}

func (m *MockRiskModel) Contributions(profile domain.PatientProfile) []domain.Contribution {
	args := m.Called(profile)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Contribution)
}

func (m *MockRiskModel) Tier(risk float64) domain.RiskTier {
	args := m.Called(risk)
	return args.Get(0).(domain.RiskTier)
}

func TestRiskDeltaEngine_ReferenceScenario(t *testing.T) {
	engine, _ := newTestEngine(t)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	engine.now = func() time.Time { return fixed }

	result, err := engine.Evaluate(referenceProfile(), selection("statin_high"))
	require.NoError(t, err)
	require.True(t, result.IsAvailable())

	assert.NotEmpty(t, result.EvaluationID)
	assert.Equal(t, fixed, result.EvaluatedAt)
	assert.Nil(t, result.Unavailable)

	assert.InDelta(t, 27.83, *result.BaselineRisk, 0.01)
	assert.InDelta(t, 19.93, *result.AdjustedRisk, 0.01)
	assert.InDelta(t, 7.90, *result.AbsoluteReduction, 0.01)
	assert.InDelta(t, 0.2837, *result.RelativeReduction, 1e-3)
	assert.Equal(t, domain.VERY_HIGH, result.BaselineTier)
	assert.Equal(t, domain.HIGH, result.AdjustedTier)

	assert.Equal(t, 3.5, result.BaselineLDL)
	assert.InDelta(t, 1.75, *result.AdjustedLDL, 1e-9)
	require.NotNil(t, result.LDL)
	assert.Len(t, result.LDL.Trajectory, 1)
	assert.False(t, result.LDLGoalMet)
	assert.Len(t, result.Contributions, 12)
	assert.Empty(t, result.Warnings)
}

func TestRiskDeltaEngine_EmptySelectionHasNoEffect(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(referenceProfile(), selection())
	require.NoError(t, err)
	require.True(t, result.IsAvailable())

	assert.Equal(t, *result.BaselineRisk, *result.AdjustedRisk)
	assert.Equal(t, 0.0, *result.AbsoluteReduction)
	assert.Equal(t, 0.0, *result.RelativeReduction)
	assert.Equal(t, result.BaselineLDL, *result.AdjustedLDL)
	assert.Empty(t, result.LDL.Trajectory)
}

func TestRiskDeltaEngine_ShadowProfileDiffersOnlyInLDL(t *testing.T) {
	logger := testLogger()
	catalog := NewDefaultTherapyCatalog(logger)
	config := domain.DefaultEngineConfig()

	profile := referenceProfile()
	shadow := profile.WithLDL(1.75)

	riskModel := new(MockRiskModel)
	riskModel.On("ComputeRisk", profile).Return(27.0, true).Once()
	riskModel.On("ComputeRisk", shadow).Return(20.0, true).Once()
	riskModel.On("Tier", mock.Anything).Return(domain.HIGH)
	riskModel.On("Contributions", profile).Return(nil)

	engine := NewRiskDeltaEngine(logger, catalog, NewLDLModel(logger, catalog, config.LDL), riskModel, config)

	result, err := engine.Evaluate(profile, selection("statin_high"))
	require.NoError(t, err)

	assert.Equal(t, 27.0, *result.BaselineRisk)
	assert.Equal(t, 20.0, *result.AdjustedRisk)
	assert.Equal(t, 7.0, *result.AbsoluteReduction)
	riskModel.AssertExpectations(t)
	riskModel.AssertNumberOfCalls(t, "ComputeRisk", 2)
}

func TestRiskDeltaEngine_UnavailableResults(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("Incomplete", func(t *testing.T) {
		profile := referenceProfile()
		profile.EGFR = 0
		profile.HsCRP = 0

		result, err := engine.Evaluate(profile, selection("statin_high"))
		require.NoError(t, err)

		assert.Equal(t, domain.UNAVAILABLE, result.Status)
		assert.Nil(t, result.BaselineRisk)
		assert.Nil(t, result.AdjustedRisk)
		assert.Nil(t, result.AbsoluteReduction)
		assert.Nil(t, result.RelativeReduction)
		assert.Equal(t, domain.UNKNOWN_TIER, result.BaselineTier)
		require.NotNil(t, result.Unavailable)
		assert.Equal(t, domain.ReasonIncomplete, result.Unavailable.Reason)
		assert.Equal(t, []string{"egfr", "hs_crp"}, result.Unavailable.Missing)

		var incomplete *domain.IncompleteInputError
		assert.True(t, errors.As(result.Err(), &incomplete))
	})

	t.Run("Out of range", func(t *testing.T) {
		profile := referenceProfile()
		profile.Age = 104

		result, err := engine.Evaluate(profile, selection())
		require.NoError(t, err)

		assert.False(t, result.IsAvailable())
		assert.Nil(t, result.BaselineRisk)
		require.NotNil(t, result.Unavailable)
		assert.Equal(t, domain.ReasonOutOfRange, result.Unavailable.Reason)
		require.Len(t, result.Unavailable.OutOfRange, 1)
		assert.Equal(t, "age", result.Unavailable.OutOfRange[0].Field)

		var outOfRange *domain.OutOfRangeError
		assert.True(t, errors.As(result.Err(), &outOfRange))
	})
}

func TestRiskDeltaEngine_InvalidSelectionIsAnError(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(referenceProfile(), selection("statin_high", "niacin"))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUnknownTherapy)

	_, err = engine.Evaluate(referenceProfile(), selection("statin_high", "statin_moderate"))
	assert.ErrorIs(t, err, domain.ErrExclusiveTherapies)
}

func TestRiskDeltaEngine_AddingTherapyNeverRaisesRisk(t *testing.T) {
	engine, catalog := newTestEngine(t)
	profile := referenceProfile()

	for _, base := range catalog.ValidCombinations() {
		before, err := engine.Evaluate(profile, base)
		require.NoError(t, err)
		assert.LessOrEqual(t, *before.AdjustedRisk, *before.BaselineRisk)

		for _, class := range catalog.ListTherapies() {
			extended := base.With(class.ID)
			if _, err := catalog.Validate(extended); err != nil {
				continue
			}
			after, err := engine.Evaluate(profile, extended)
			require.NoError(t, err)
			assert.LessOrEqual(t, *after.AdjustedRisk, *before.AdjustedRisk+1e-12, "%s -> %s", base, extended)
		}
	}
}

func TestRiskDeltaEngine_LDLGoal(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Evaluate(referenceProfile(), selection("statin_high", "pcsk9_mab"))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, *result.AdjustedLDL, 1e-9)
	assert.True(t, result.LDLGoalMet)

	// Below 1.4 mmol/L but less than a 50% reduction
	profile := referenceProfile().WithLDL(1.6)
	result, err = engine.Evaluate(profile, selection("ezetimibe"))
	require.NoError(t, err)
	assert.Less(t, *result.AdjustedLDL, 1.4)
	assert.False(t, result.LDLGoalMet)
}

func TestRiskDeltaEngine_LDLBelowHDLWarns(t *testing.T) {
	engine, _ := newTestEngine(t)
	profile := referenceProfile()
	profile.LDL = 0.8
	profile.HDL = 1.2

	result, err := engine.Evaluate(profile, selection("statin_high"))
	require.NoError(t, err)
	assert.True(t, result.IsAvailable())
	assert.Contains(t, result.Warnings, domain.WarningLDLBelowHDL)
}

func TestRiskDeltaEngine_ZeroBaselineRisk(t *testing.T) {
	logger := testLogger()
	config := domain.DefaultEngineConfig()
	config.Risk.Intercept = -1000
	engine := NewDefaultRiskDeltaEngine(logger, NewDefaultTherapyCatalog(logger), config)

	result, err := engine.Evaluate(referenceProfile(), selection("statin_high"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *result.BaselineRisk)
	assert.Equal(t, 0.0, *result.RelativeReduction)
}

func TestRiskDeltaEngine_ConcurrentEvaluations(t *testing.T) {
	engine, _ := newTestEngine(t)
	expected, err := engine.Evaluate(referenceProfile(), selection("statin_high", "ezetimibe"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := engine.Evaluate(referenceProfile(), selection("ezetimibe", "statin_high"))
			if assert.NoError(t, err) {
				assert.Equal(t, *expected.AdjustedRisk, *result.AdjustedRisk)
			}
		}()
	}
	wg.Wait()
}

func TestRiskDeltaEngine_CompareRegimens(t *testing.T) {
	engine, catalog := newTestEngine(t)
	ctx := context.Background()

	t.Run("Explicit candidates", func(t *testing.T) {
		candidates := []domain.TherapySelection{
			selection("statin_high"),
			selection(),
			selection("statin_high", "ezetimibe"),
		}

		comparison, err := engine.CompareRegimens(ctx, referenceProfile(), candidates)
		require.NoError(t, err)
		require.Len(t, comparison.Outcomes, 3)
		require.NotNil(t, comparison.BaselineRisk)
		assert.InDelta(t, 27.83, *comparison.BaselineRisk, 0.01)

		assert.Equal(t, "ezetimibe+statin_high", comparison.Outcomes[0].Label)
		assert.Equal(t, "statin_high", comparison.Outcomes[1].Label)
		assert.Equal(t, "none", comparison.Outcomes[2].Label)
		for i, outcome := range comparison.Outcomes {
			assert.Equal(t, i+1, outcome.Rank)
		}
	})

	t.Run("All valid combinations", func(t *testing.T) {
		comparison, err := engine.CompareRegimens(ctx, referenceProfile(), nil)
		require.NoError(t, err)
		require.Len(t, comparison.Outcomes, len(catalog.ValidCombinations()))

		for i := 1; i < len(comparison.Outcomes); i++ {
			prev, cur := comparison.Outcomes[i-1].Result, comparison.Outcomes[i].Result
			assert.LessOrEqual(t, *prev.AdjustedRisk, *cur.AdjustedRisk)
			if *prev.AdjustedRisk == *cur.AdjustedRisk {
				assert.LessOrEqual(t, prev.Selection.Len(), cur.Selection.Len())
			}
		}
		assert.Equal(t, "none", comparison.Outcomes[len(comparison.Outcomes)-1].Label)
	})

	t.Run("Invalid candidate", func(t *testing.T) {
		_, err := engine.CompareRegimens(ctx, referenceProfile(), []domain.TherapySelection{
			selection("statin_high"),
			selection("inclisiran", "pcsk9_mab"),
		})
		assert.ErrorIs(t, err, domain.ErrExclusiveTherapies)
	})

	t.Run("Incomplete profile", func(t *testing.T) {
		comparison, err := engine.CompareRegimens(ctx, domain.PatientProfile{Age: 70}, []domain.TherapySelection{
			selection("statin_high"),
			selection(),
		})
		require.NoError(t, err)
		assert.Nil(t, comparison.BaselineRisk)
		require.Len(t, comparison.Outcomes, 2)
		assert.Equal(t, "none", comparison.Outcomes[0].Label)
		for _, outcome := range comparison.Outcomes {
			assert.False(t, outcome.Result.IsAvailable())
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := engine.CompareRegimens(cancelled, referenceProfile(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRiskDeltaEngine_LogsUnavailableEvaluations(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	catalog := NewDefaultTherapyCatalog(logger)
	engine := NewDefaultRiskDeltaEngine(logger, catalog, domain.DefaultEngineConfig())

	_, err := engine.Evaluate(domain.PatientProfile{Age: 70}, selection())
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, domain.ReasonIncomplete, entry.Data["reason"])
	assert.NotContains(t, entry.Data, "age")

	hook.Reset()
	_, err = engine.Evaluate(referenceProfile(), selection("statin_high"))
	require.NoError(t, err)
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "statin_high", entry.Data["selection"])
}
