package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/prime-cvd-risk/internal/domain"
)

// ErrProjectionOutOfBounds is returned when the treated profile falls outside the covariate
// bounds, which only happens when the LDL floor is configured below the LDL-C bound.
var ErrProjectionOutOfBounds = errors.New("projected profile outside covariate bounds")

// RiskDeltaEngine evaluates a patient twice, once as given and once with LDL-C replaced by
// its projection under the selected therapy, and reports the difference.
type RiskDeltaEngine struct {
	logger  *logrus.Logger
	catalog domain.TherapyCatalog
	ldl     domain.LDLEffectModel
	risk    domain.RiskModel
	config  domain.EngineConfig
	now     func() time.Time
}

// NewRiskDeltaEngine creates a new risk delta engine
func NewRiskDeltaEngine(
	logger *logrus.Logger,
	catalog domain.TherapyCatalog,
	ldl domain.LDLEffectModel,
	risk domain.RiskModel,
	config domain.EngineConfig,
) *RiskDeltaEngine {
	return &RiskDeltaEngine{
		logger:  logger,
		catalog: catalog,
		ldl:     ldl,
		risk:    risk,
		config:  config,
		now:     time.Now,
	}
}

// NewDefaultRiskDeltaEngine wires the engine with the logistic risk model and the LDL
// effect model over the given catalog.
func NewDefaultRiskDeltaEngine(logger *logrus.Logger, catalog domain.TherapyCatalog, config domain.EngineConfig) *RiskDeltaEngine {
	return NewRiskDeltaEngine(
		logger,
		catalog,
		NewLDLModel(logger, catalog, config.LDL),
		NewLogisticRiskModel(config),
		config,
	)
}

// Evaluate computes baseline and treated risk for one profile and selection.
//
// An incomplete or out-of-range profile yields an UNAVAILABLE result and a nil error.
// Errors are returned only for an invalid selection or LDL-C input.
func (e *RiskDeltaEngine) Evaluate(profile domain.PatientProfile, selection domain.TherapySelection) (*domain.RiskResult, error) {
	result := &domain.RiskResult{
		EvaluationID: uuid.New().String(),
		Status:       domain.UNAVAILABLE,
		Selection:    selection,
		BaselineTier: domain.UNKNOWN_TIER,
		AdjustedTier: domain.UNKNOWN_TIER,
		BaselineLDL:  profile.LDL,
		Profile:      profile,
		Warnings:     profile.Warnings(),
		EvaluatedAt:  e.now().UTC(),
	}

	// Step 1: the selection must be valid regardless of patient data
	if _, err := e.catalog.Validate(selection); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	// Step 2: gate on completeness and bounds
	if err := profile.Validate(e.config.Bounds); err != nil {
		result.Unavailable = unavailability(err)
		e.logger.WithFields(logrus.Fields{
			"evaluation_id": result.EvaluationID,
			"reason":        result.Unavailable.Reason,
		}).Warn("Risk unavailable for patient profile")
		return result, nil
	}

	// Step 3: baseline risk
	baseline, ok := e.risk.ComputeRisk(profile)
	if !ok {
		return nil, fmt.Errorf("evaluate: baseline: %w", ErrProjectionOutOfBounds)
	}

	// Step 4: project LDL-C and evaluate the shadow profile with identical coefficients
	projection, err := e.ldl.Project(profile.LDL, selection)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	adjusted, ok := e.risk.ComputeRisk(profile.WithLDL(projection.AdjustedLDL))
	if !ok {
		return nil, fmt.Errorf("evaluate: treated profile: %w", ErrProjectionOutOfBounds)
	}

	// Step 5: deltas
	absolute := baseline - adjusted
	relative := 0.0
	if baseline > 0 {
		relative = absolute / baseline
	}

	result.Status = domain.AVAILABLE
	result.BaselineRisk = domain.Float(baseline)
	result.AdjustedRisk = domain.Float(adjusted)
	result.AbsoluteReduction = domain.Float(absolute)
	result.RelativeReduction = domain.Float(relative)
	result.BaselineTier = e.risk.Tier(baseline)
	result.AdjustedTier = e.risk.Tier(adjusted)
	result.AdjustedLDL = domain.Float(projection.AdjustedLDL)
	result.LDL = projection
	result.LDLGoalMet = e.ldlGoalMet(projection)
	result.Contributions = e.risk.Contributions(profile)

	e.logger.WithFields(logrus.Fields{
		"evaluation_id": result.EvaluationID,
		"selection":     selection.String(),
		"baseline_risk": baseline,
		"adjusted_risk": adjusted,
		"baseline_tier": result.BaselineTier,
		"ldl_goal_met":  result.LDLGoalMet,
	}).Info("Risk evaluation completed")

	return result, nil
}

func (e *RiskDeltaEngine) ldlGoalMet(projection *domain.LDLProjection) bool {
	goal := e.config.Recommendation
	return projection.AdjustedLDL < goal.LDLGoal &&
		projection.PercentReduction >= 100*goal.LDLGoalReduction-1e-9
}

func unavailability(err error) *domain.Unavailability {
	var incomplete *domain.IncompleteInputError
	if errors.As(err, &incomplete) {
		return &domain.Unavailability{Reason: domain.ReasonIncomplete, Missing: incomplete.Fields}
	}
	var outOfRange *domain.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return &domain.Unavailability{Reason: domain.ReasonOutOfRange, OutOfRange: outOfRange.Fields}
	}
	return &domain.Unavailability{Reason: err.Error()}
}

// CompareRegimens evaluates every candidate selection concurrently and ranks them by
// projected risk, then by fewer therapies, then by label. A nil candidate list compares
// every combination the catalog accepts.
func (e *RiskDeltaEngine) CompareRegimens(ctx context.Context, profile domain.PatientProfile, candidates []domain.TherapySelection) (*domain.RegimenComparison, error) {
	if candidates == nil {
		candidates = e.validCombinations()
	}

	results := make([]*domain.RiskResult, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, candidate := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := e.Evaluate(profile, candidate)
			if err != nil {
				return fmt.Errorf("regimen %s: %w", candidate, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcomes := make([]domain.RegimenOutcome, len(results))
	for i, result := range results {
		outcomes[i] = domain.RegimenOutcome{Label: result.Selection.String(), Result: result}
	}
	slices.SortStableFunc(outcomes, compareOutcomes)

	comparison := &domain.RegimenComparison{Outcomes: outcomes}
	for i := range comparison.Outcomes {
		comparison.Outcomes[i].Rank = i + 1
		if comparison.BaselineRisk == nil && comparison.Outcomes[i].Result.BaselineRisk != nil {
			comparison.BaselineRisk = comparison.Outcomes[i].Result.BaselineRisk
		}
	}

	e.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
	}).Info("Regimen comparison completed")

	return comparison, nil
}

func (e *RiskDeltaEngine) validCombinations() []domain.TherapySelection {
	if enumerator, ok := e.catalog.(interface {
		ValidCombinations() []domain.TherapySelection
	}); ok {
		return enumerator.ValidCombinations()
	}

	combos := []domain.TherapySelection{domain.NewTherapySelection()}
	for _, class := range e.catalog.ListTherapies() {
		combos = append(combos, domain.NewTherapySelection(class.ID))
	}
	return combos
}

func compareOutcomes(a, b domain.RegimenOutcome) int {
	ra, rb := adjustedOrInf(a.Result), adjustedOrInf(b.Result)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	if n := a.Result.Selection.Len() - b.Result.Selection.Len(); n != 0 {
		return n
	}
	return strings.Compare(a.Label, b.Label)
}

func adjustedOrInf(result *domain.RiskResult) float64 {
	if result.AdjustedRisk == nil {
		return math.Inf(1)
	}
	return *result.AdjustedRisk
}
