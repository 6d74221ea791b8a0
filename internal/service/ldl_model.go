package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/domain"
)

// LDLModel projects LDL-C under a therapy selection. Classes are applied one at a time in
// canonical potency order, each according to its combination rule, and the combined
// effect is then bounded by the global cap and the physiologic floor.
type LDLModel struct {
	logger  *logrus.Logger
	catalog domain.TherapyCatalog
	config  domain.LDLModelConfig
}

// NewLDLModel creates a new LDL effect model
func NewLDLModel(logger *logrus.Logger, catalog domain.TherapyCatalog, config domain.LDLModelConfig) *LDLModel {
	return &LDLModel{
		logger:  logger,
		catalog: catalog,
		config:  config,
	}
}

// ComputeAdjustedLDL returns the projected LDL-C for the selection.
func (m *LDLModel) ComputeAdjustedLDL(baselineLDL float64, selection domain.TherapySelection) (float64, error) {
	projection, err := m.Project(baselineLDL, selection)
	if err != nil {
		return 0, err
	}
	return projection.AdjustedLDL, nil
}

// Trajectory returns the LDL-C value after each selected class in canonical potency order.
func (m *LDLModel) Trajectory(baselineLDL float64, selection domain.TherapySelection) ([]domain.LDLStep, error) {
	projection, err := m.Project(baselineLDL, selection)
	if err != nil {
		return nil, err
	}
	return projection.Trajectory, nil
}

// Project returns the projected LDL-C together with the per-class trajectory.
func (m *LDLModel) Project(baselineLDL float64, selection domain.TherapySelection) (*domain.LDLProjection, error) {
	if math.IsNaN(baselineLDL) || math.IsInf(baselineLDL, 0) || baselineLDL <= 0 {
		return nil, domain.NewInvalidInputError("ldl", "baseline LDL-C must be a positive number", baselineLDL, domain.ErrNonPositiveLDL)
	}

	if _, err := m.catalog.Validate(selection); err != nil {
		return nil, err
	}

	projection := &domain.LDLProjection{
		BaselineLDL: baselineLDL,
		AdjustedLDL: baselineLDL,
		Trajectory:  []domain.LDLStep{},
	}
	if selection.IsEmpty() {
		return projection, nil
	}

	floor := math.Min(m.config.Floor, baselineLDL)

	// Step 1: apply each class to the remaining fraction of baseline LDL-C
	remaining := 1.0
	for _, class := range m.catalog.Ordered(selection) {
		remaining = applyCombinationRule(remaining, class)
		projection.Trajectory = append(projection.Trajectory, domain.LDLStep{
			TherapyID: class.ID,
			Rule:      class.Combination,
			Reduction: class.Reduction,
			LDL:       math.Max(baselineLDL*remaining, floor),
		})
	}

	// Step 2: bound the combined reduction
	if maxReduction := m.config.MaxCombinedReduction; maxReduction > 0 && maxReduction < 1 && remaining < 1-maxReduction {
		remaining = 1 - maxReduction
		projection.CapApplied = true
	}

	// Step 3: never project below the physiologic floor
	adjusted := baselineLDL * remaining
	if adjusted < floor {
		adjusted = floor
		projection.FloorApplied = true
	}

	// Step 4: no step reports less than the bounded result
	for i := range projection.Trajectory {
		projection.Trajectory[i].LDL = math.Max(projection.Trajectory[i].LDL, adjusted)
	}

	projection.AdjustedLDL = adjusted
	projection.PercentReduction = 100 * (baselineLDL - adjusted) / baselineLDL

	m.logger.WithFields(logrus.Fields{
		"selection":         selection.String(),
		"baseline_ldl":      baselineLDL,
		"adjusted_ldl":      adjusted,
		"percent_reduction": projection.PercentReduction,
		"cap_applied":       projection.CapApplied,
		"floor_applied":     projection.FloorApplied,
	}).Debug("Projected LDL-C under therapy")

	return projection, nil
}

// applyCombinationRule returns the remaining LDL-C fraction after adding class. Every rule
// is non-increasing in its input and never raises the remaining fraction.
func applyCombinationRule(remaining float64, class domain.TherapyClass) float64 {
	switch class.Combination {
	case domain.ADDITIVE:
		return math.Max(0, remaining-class.Reduction)
	case domain.CAPPED:
		limit := 1 - class.MaxCombined
		return math.Min(remaining, math.Max(remaining*(1-class.Reduction), limit))
	default:
		return remaining * (1 - class.Reduction)
	}
}
