package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prime-cvd-risk/internal/domain"
	"github.com/prime-cvd-risk/internal/middleware"
	"github.com/prime-cvd-risk/internal/service"
)

// SelectionRequest names a set of therapy classes.
type SelectionRequest struct {
	Therapies domain.TherapySelection `json:"therapies"`
}

// SelectionResponse is the canonical form of a valid selection.
type SelectionResponse struct {
	Valid     bool                    `json:"valid"`
	Selection domain.TherapySelection `json:"selection"`
	Therapies []domain.TherapyClass   `json:"therapies"`
}

// LDLRequest asks for the projected LDL-C under a selection.
type LDLRequest struct {
	BaselineLDL float64                 `json:"baseline_ldl"`
	Therapies   domain.TherapySelection `json:"therapies"`
}

// EvaluateRequest asks for baseline and treated risk.
type EvaluateRequest struct {
	Profile   domain.PatientProfile   `json:"profile"`
	Therapies domain.TherapySelection `json:"therapies"`
}

// CompareRequest asks for a ranking of candidate regimens. Omitted candidates compare
// every valid combination in the catalog.
type CompareRequest struct {
	Profile    domain.PatientProfile     `json:"profile"`
	Candidates []domain.TherapySelection `json:"candidates,omitempty"`
}

func (s *Server) handleListTherapies(c *gin.Context) {
	therapies := s.engine.Catalog.ListTherapies()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(therapies),
		"therapies": therapies,
	})
}

func (s *Server) handleValidateSelection(c *gin.Context) {
	var req SelectionRequest
	if !s.bind(c, &req) {
		return
	}

	selection, err := s.engine.Catalog.Validate(req.Therapies)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SelectionResponse{
		Valid:     true,
		Selection: selection,
		Therapies: s.engine.Catalog.Ordered(selection),
	})
}

func (s *Server) handleComputeLDL(c *gin.Context) {
	var req LDLRequest
	if !s.bind(c, &req) {
		return
	}

	projection, err := s.engine.LDL.Project(req.BaselineLDL, req.Therapies)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if !s.bind(c, &req) {
		return
	}

	assessment, err := s.engine.Assess(req.Profile, req.Therapies)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.metrics.ObserveEvaluation(assessment.Result)
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleCompareRegimens(c *gin.Context) {
	var req CompareRequest
	if !s.bind(c, &req) {
		return
	}

	comparison, err := s.engine.Evaluator.CompareRegimens(c.Request.Context(), req.Profile, req.Candidates)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrValidation,
			"Malformed request body",
			err.Error(),
			c.GetString(middleware.CorrelationIDKey),
		))
		return false
	}
	return true
}

// writeError maps engine errors onto HTTP status codes and the APIError envelope.
func (s *Server) writeError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)

	var selectionErr *domain.InvalidSelectionError
	var inputErr *domain.InvalidInputError

	switch {
	case errors.As(err, &selectionErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			domain.NewAPIError(domain.ErrInvalidSelection, "Invalid therapy selection", err.Error(), requestID))
	case errors.As(err, &inputErr):
		c.AbortWithStatusJSON(http.StatusBadRequest,
			domain.NewAPIError(domain.ErrInvalidInput, "Invalid input", err.Error(), requestID))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout,
			domain.NewAPIError(domain.ErrInternalServer, "Request timed out", err.Error(), requestID))
	default:
		if errors.Is(err, service.ErrProjectionOutOfBounds) {
			s.logger.WithError(err).Error("Engine configuration produced an out-of-bounds projection")
		} else {
			s.logger.WithError(err).Error("Unhandled engine error")
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			domain.NewAPIError(domain.ErrInternalServer, "Internal server error", "", requestID))
	}
}
