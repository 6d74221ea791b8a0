package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/prime-cvd-risk/internal/domain"
)

// PatientInput is the tool-facing patient covariate set. Every field is optional so
// that an incomplete form yields an "unavailable" result rather than a schema error.
type PatientInput struct {
	Age              int     `json:"age,omitempty"`
	Sex              string  `json:"sex,omitempty"`
	Smoker           bool    `json:"smoker,omitempty"`
	Diabetes         bool    `json:"diabetes,omitempty"`
	CAD              bool    `json:"cad,omitempty"`
	Stroke           bool    `json:"stroke,omitempty"`
	PAD              bool    `json:"pad,omitempty"`
	SystolicBP       float64 `json:"systolic_bp,omitempty"`
	TotalCholesterol float64 `json:"total_cholesterol,omitempty"`
	HDL              float64 `json:"hdl,omitempty"`
	LDL              float64 `json:"ldl,omitempty"`
	EGFR             float64 `json:"egfr,omitempty"`
	HsCRP            float64 `json:"hs_crp,omitempty"`
}

// Profile converts the input to a patient profile; sex is case-insensitive.
func (p PatientInput) Profile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              p.Age,
		Sex:              domain.Sex(strings.ToUpper(strings.TrimSpace(p.Sex))),
		Smoker:           p.Smoker,
		Diabetes:         p.Diabetes,
		CAD:              p.CAD,
		Stroke:           p.Stroke,
		PAD:              p.PAD,
		SystolicBP:       p.SystolicBP,
		TotalCholesterol: p.TotalCholesterol,
		HDL:              p.HDL,
		LDL:              p.LDL,
		EGFR:             p.EGFR,
		HsCRP:            p.HsCRP,
	}
}

// ListTherapiesParams defines parameters for list_therapies tool
type ListTherapiesParams struct{}

// ListTherapiesResult defines the result structure for list_therapies tool
type ListTherapiesResult struct {
	Count     int                   `json:"count"`
	Therapies []domain.TherapyClass `json:"therapies"`
}

// ValidateSelectionParams defines parameters for validate_selection tool
type ValidateSelectionParams struct {
	Therapies []string `json:"therapies,omitempty"`
}

// ValidateSelectionResult defines the result structure for validate_selection tool
type ValidateSelectionResult struct {
	Valid     bool     `json:"valid"`
	Selection []string `json:"selection,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Offending []string `json:"offending,omitempty"`
}

// ComputeLDLParams defines parameters for compute_adjusted_ldl tool
type ComputeLDLParams struct {
	BaselineLDL float64  `json:"baseline_ldl"`
	Therapies   []string `json:"therapies,omitempty"`
}

// EvaluateRiskParams defines parameters for evaluate_risk tool
type EvaluateRiskParams struct {
	Patient   PatientInput `json:"patient"`
	Therapies []string     `json:"therapies,omitempty"`
}

// EvaluateRiskResult defines the result structure for evaluate_risk tool
type EvaluateRiskResult struct {
	Result          *domain.RiskResult    `json:"result"`
	Recommendations domain.Recommendation `json:"recommendations"`
}

// CompareRegimensParams defines parameters for compare_regimens tool
type CompareRegimensParams struct {
	Patient    PatientInput `json:"patient"`
	Candidates [][]string   `json:"candidates,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_therapies",
		Description: "List the lipid-lowering therapy classes in the catalog with their LDL-C reduction and combination rule.",
	}, s.handleListTherapies)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "validate_selection",
		Description: "Check that a set of therapy class IDs is known and contains no mutually exclusive classes.",
	}, s.handleValidateSelection)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_adjusted_ldl",
		Description: "Project LDL-C (mmol/L) under a therapy selection, with the per-class trajectory.",
	}, s.handleComputeLDL)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_risk",
		Description: "Estimate 10-year recurrent cardiovascular risk after myocardial infarction before and after lipid-lowering therapy, with recommendations.",
	}, s.handleEvaluateRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compare_regimens",
		Description: "Rank therapy regimens by projected 10-year risk. Without candidates every valid combination is compared.",
	}, s.handleCompareRegimens)

	s.logger.WithField("tool_count", 5).Debug("Registered MCP tools")
}

func (s *Server) handleListTherapies(ctx context.Context, req *mcp.CallToolRequest, params ListTherapiesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_therapies").Info("Tool invoked")

	therapies := s.engine.Catalog.ListTherapies()
	lines := make([]string, 0, len(therapies))
	for _, class := range therapies {
		lines = append(lines, fmt.Sprintf("%s: %s, %.0f%% LDL-C reduction (%s)",
			class.ID, class.Name, 100*class.Reduction, class.Combination))
	}

	return textResult(strings.Join(lines, "\n")), ListTherapiesResult{Count: len(therapies), Therapies: therapies}, nil
}

func (s *Server) handleValidateSelection(ctx context.Context, req *mcp.CallToolRequest, params ValidateSelectionParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "validate_selection").Info("Tool invoked")

	selection, err := s.engine.Catalog.Validate(domain.NewTherapySelection(params.Therapies...))
	if err != nil {
		var selectionErr *domain.InvalidSelectionError
		if !errors.As(err, &selectionErr) {
			return nil, nil, err
		}
		result := ValidateSelectionResult{Reason: selectionErr.Reason.Error(), Offending: selectionErr.IDs}
		return textResult("Invalid selection: " + err.Error()), result, nil
	}

	return textResult(fmt.Sprintf("Valid selection: %s", selection)),
		ValidateSelectionResult{Valid: true, Selection: selection.IDs()}, nil
}

func (s *Server) handleComputeLDL(ctx context.Context, req *mcp.CallToolRequest, params ComputeLDLParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "compute_adjusted_ldl").Info("Tool invoked")

	selection := domain.NewTherapySelection(params.Therapies...)
	projection, err := s.engine.LDL.Project(params.BaselineLDL, selection)
	if err != nil {
		return s.createErrorResult("Cannot project LDL-C", err), nil, nil
	}

	return textResult(fmt.Sprintf("LDL-C %.2f → %.2f mmol/L with %s (%.0f%% reduction)",
		projection.BaselineLDL, projection.AdjustedLDL, selection, projection.PercentReduction)), projection, nil
}

func (s *Server) handleEvaluateRisk(ctx context.Context, req *mcp.CallToolRequest, params EvaluateRiskParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "evaluate_risk").Info("Tool invoked")

	assessment, err := s.engine.Assess(params.Patient.Profile(), domain.NewTherapySelection(params.Therapies...))
	if err != nil {
		return s.createErrorResult("Cannot evaluate risk", err), nil, nil
	}

	result := EvaluateRiskResult{Result: assessment.Result, Recommendations: assessment.Recommendations}
	return textResult(summarize(assessment.Result, assessment.Recommendations)), result, nil
}

func (s *Server) handleCompareRegimens(ctx context.Context, req *mcp.CallToolRequest, params CompareRegimensParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "compare_regimens").Info("Tool invoked")

	var candidates []domain.TherapySelection
	for _, ids := range params.Candidates {
		candidates = append(candidates, domain.NewTherapySelection(ids...))
	}

	comparison, err := s.engine.Evaluator.CompareRegimens(ctx, params.Patient.Profile(), candidates)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		return s.createErrorResult("Cannot compare regimens", err), nil, nil
	}

	var lines []string
	for _, outcome := range comparison.Outcomes {
		if len(lines) == 5 {
			lines = append(lines, fmt.Sprintf("... %d more", len(comparison.Outcomes)-5))
			break
		}
		if outcome.Result.IsAvailable() {
			lines = append(lines, fmt.Sprintf("%d. %s: %.1f%%", outcome.Rank, outcome.Label, *outcome.Result.AdjustedRisk))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s: unavailable", outcome.Rank, outcome.Label))
		}
	}

	s.logger.WithFields(logrus.Fields{"candidates": len(comparison.Outcomes)}).Debug("Regimens ranked")
	return textResult(strings.Join(lines, "\n")), comparison, nil
}

func summarize(result *domain.RiskResult, recs domain.Recommendation) string {
	var b strings.Builder
	if result.IsAvailable() {
		fmt.Fprintf(&b, "Baseline 10-year risk %.1f%% (%s); with %s %.1f%% (%s).\n",
			*result.BaselineRisk, result.BaselineTier, result.Selection, *result.AdjustedRisk, result.AdjustedTier)
	}
	for _, rec := range recs {
		b.WriteString("- ")
		b.WriteString(rec)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
