package service

import (
	"fmt"
	"strings"

	"github.com/prime-cvd-risk/internal/domain"
)

// Recommendation texts that do not depend on the patient's values.
const (
	RecommendCompleteData     = "Please complete all patient data to calculate risk."
	RecommendStartStatin      = "No lipid-lowering therapy selected: start a high-intensity statin unless contraindicated."
	RecommendAddStatin        = "Add a high-intensity statin as the foundation of lipid-lowering therapy."
	RecommendEscalateStatin   = "Escalate to a high-intensity statin at the maximally tolerated dose."
	RecommendAddEzetimibe     = "Add ezetimibe to the current regimen."
	RecommendConsiderPCSK9    = "Consider a PCSK9-targeted therapy (monoclonal antibody or inclisiran)."
	RecommendRiskFactors      = "Very high residual risk: address additional modifiable risk factors."
	RecommendSmokingCessation = "Smoking cessation: offer counselling and pharmacotherapy."
	RecommendDiabetes         = "Diabetes: optimise glycaemic control and consider an SGLT2 inhibitor or GLP-1 receptor agonist with proven cardiovascular benefit."
	RecommendPolyvascular     = "Polyvascular disease: consider low-dose rivaroxaban in addition to aspirin if bleeding risk is low."
	RecommendCheckLDLBelowHDL = "Check input: LDL-C cannot be lower than HDL-C."
)

// RecommendationGenerator turns a risk result into ordered guidance, most important first.
// It is deterministic: the same result always yields the same list.
type RecommendationGenerator struct {
	catalog domain.TherapyCatalog
	config  domain.RecommendationConfig
}

// NewRecommendationGenerator creates a new recommendation generator
func NewRecommendationGenerator(catalog domain.TherapyCatalog, config domain.RecommendationConfig) *RecommendationGenerator {
	return &RecommendationGenerator{
		catalog: catalog,
		config:  config,
	}
}

// Generate returns the guidance for result.
func (g *RecommendationGenerator) Generate(result *domain.RiskResult) domain.Recommendation {
	if result == nil {
		return domain.Recommendation{RecommendCompleteData}
	}

	if !result.IsAvailable() {
		return g.unavailable(result)
	}

	var recs domain.Recommendation
	baseline := *result.BaselineRisk
	adjusted := *result.AdjustedRisk

	// Step 1: risk level
	recs = append(recs, fmt.Sprintf("%s: estimated 10-year risk of recurrent events is %.1f%%.",
		result.BaselineTier.Description(), baseline))

	// Step 2: effect of the selected therapy
	if result.Selection.IsEmpty() {
		recs = append(recs, RecommendStartStatin)
	} else {
		recs = append(recs, fmt.Sprintf(
			"Selected therapy (%s) lowers LDL-C from %.2f to %.2f mmol/L and 10-year risk to %.1f%% (absolute reduction %.1f points, relative %.0f%%).",
			g.labelFor(result.Selection), result.BaselineLDL, *result.AdjustedLDL, adjusted,
			*result.AbsoluteReduction, 100**result.RelativeReduction))
	}

	// Step 3: LDL-C goal and escalation
	if result.LDLGoalMet {
		recs = append(recs, fmt.Sprintf("LDL-C goal of <%.1f mmol/L with at least %.0f%% reduction is projected to be met.",
			g.config.LDLGoal, 100*g.config.LDLGoalReduction))
	} else if !result.Selection.IsEmpty() {
		recs = append(recs, fmt.Sprintf("LDL-C goal not met: target below %.1f mmol/L with at least %.0f%% reduction from baseline.",
			g.config.LDLGoal, 100*g.config.LDLGoalReduction))
		recs = append(recs, g.escalation(result.Selection)...)
	}

	if !result.Selection.IsEmpty() && *result.RelativeReduction < g.config.EscalateBelowRelative {
		recs = append(recs, fmt.Sprintf("Projected relative risk reduction is below %.0f%%: intensify lipid-lowering therapy.",
			100*g.config.EscalateBelowRelative))
	}

	// Step 4: residual risk beyond LDL-C
	if adjusted >= g.config.VeryHighRisk {
		recs = append(recs, RecommendRiskFactors)
		recs = append(recs, g.riskFactors(result.Profile)...)
	}

	// Step 5: advisory warnings
	for _, warning := range result.Warnings {
		if warning == domain.WarningLDLBelowHDL {
			recs = append(recs, RecommendCheckLDLBelowHDL)
			continue
		}
		recs = append(recs, "Check input: "+warning+".")
	}

	return recs
}

func (g *RecommendationGenerator) unavailable(result *domain.RiskResult) domain.Recommendation {
	recs := domain.Recommendation{RecommendCompleteData}
	if result.Unavailable == nil {
		return recs
	}

	switch result.Unavailable.Reason {
	case domain.ReasonIncomplete:
		recs = append(recs, "Missing: "+strings.Join(result.Unavailable.Missing, ", ")+".")
	case domain.ReasonOutOfRange:
		fields := make([]string, 0, len(result.Unavailable.OutOfRange))
		for _, field := range result.Unavailable.OutOfRange {
			fields = append(fields, field.String())
		}
		recs = append(recs, "Outside clinically valid range: "+strings.Join(fields, "; ")+".")
	}
	return recs
}

func (g *RecommendationGenerator) escalation(selection domain.TherapySelection) []string {
	var recs []string

	statin := ""
	hasEzetimibe, hasPCSK9 := false, false
	for _, class := range g.catalog.Ordered(selection) {
		switch class.Category {
		case domain.STATIN:
			statin = class.ID
		case domain.EZETIMIBE:
			hasEzetimibe = true
		case domain.PCSK9_PATHWAY:
			hasPCSK9 = true
		}
	}

	switch {
	case statin == "":
		recs = append(recs, RecommendAddStatin)
	case !g.isMostPotentInCategory(statin):
		recs = append(recs, RecommendEscalateStatin)
	}
	if !hasEzetimibe {
		recs = append(recs, RecommendAddEzetimibe)
	}
	if !hasPCSK9 {
		recs = append(recs, RecommendConsiderPCSK9)
	}
	return recs
}

// isMostPotentInCategory reports whether no class of the same category lowers LDL-C more.
func (g *RecommendationGenerator) isMostPotentInCategory(id string) bool {
	selected, ok := g.catalog.Lookup(id)
	if !ok {
		return false
	}
	for _, class := range g.catalog.ListTherapies() {
		if class.Category == selected.Category && class.Reduction > selected.Reduction {
			return false
		}
	}
	return true
}

func (g *RecommendationGenerator) riskFactors(profile domain.PatientProfile) []string {
	var recs []string
	if profile.Smoker {
		recs = append(recs, RecommendSmokingCessation)
	}
	if profile.SystolicBP > g.config.SBPTarget {
		recs = append(recs, fmt.Sprintf("Blood pressure: systolic %.0f mmHg is above the %.0f mmHg target; intensify antihypertensive therapy.",
			profile.SystolicBP, g.config.SBPTarget))
	}
	if profile.Diabetes {
		recs = append(recs, RecommendDiabetes)
	}
	if profile.HsCRP > g.config.InflammationThreshold {
		recs = append(recs, fmt.Sprintf("Residual inflammatory risk: hs-CRP %.1f mg/L is above %.1f mg/L; consider low-dose colchicine.",
			profile.HsCRP, g.config.InflammationThreshold))
	}
	if profile.EGFR < g.config.RenalImpairmentEGFR {
		recs = append(recs, fmt.Sprintf("Renal impairment: eGFR %.0f mL/min/1.73m² is below %.0f; review drug dosing and nephroprotection.",
			profile.EGFR, g.config.RenalImpairmentEGFR))
	}
	if profile.VascularBedCount() >= 2 {
		recs = append(recs, RecommendPolyvascular)
	}
	return recs
}

func (g *RecommendationGenerator) labelFor(selection domain.TherapySelection) string {
	names := make([]string, 0, selection.Len())
	for _, class := range g.catalog.Ordered(selection) {
		names = append(names, class.Name)
	}
	return strings.Join(names, " + ")
}
