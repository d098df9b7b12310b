package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/runner"
)

// QueryRequest is the body of /v1/plan and /v1/ask.
type QueryRequest struct {
	Query string `binding:"required" json:"query"`

	// Where is an optional record filter expression, /v1/ask only.
	Where string `json:"where,omitempty"`
}

// AskResponse is the body of a successful /v1/ask.
type AskResponse struct {
	Plan    []graphplan.Step   `json:"plan"`
	Records []graphplan.Record `json:"records"`
}

// IntentSummary is one entry of /v1/intents.
type IntentSummary struct {
	ID          string `json:"intent_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Steps       int    `json:"steps"`
}

// IntentsResponse is the body of /v1/intents.
type IntentsResponse struct {
	Version      string          `json:"version"`
	GeneratedAt  string          `json:"generated_at"`
	TotalIntents int             `json:"total_intents"`
	Intents      []IntentSummary `json:"intents"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handlePlan(c *gin.Context) {
	logger := s.requestLogger(c, "plan")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)

		return
	}

	plan, err := s.planner.GeneratePlan(c.Request.Context(), req.Query)
	if err != nil {
		logger.Info("Plan failed", zap.Error(err))
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleAsk(c *gin.Context) {
	logger := s.requestLogger(c, "ask")
	start := time.Now()

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)

		return
	}

	filter, err := runner.CompileFilter(req.Where)
	if err != nil {
		s.badRequest(c, err)

		return
	}

	ctx := c.Request.Context()

	plan, err := s.planner.GeneratePlan(ctx, req.Query)
	if err != nil {
		logger.Info("Plan failed", zap.Error(err))
		s.fail(c, err)

		return
	}

	records, err := s.executor.Execute(ctx, plan)
	if err != nil {
		logger.Warn("Execution failed", zap.Error(err))
		s.fail(c, err)

		return
	}

	kept := make([]graphplan.Record, 0, len(records))

	for _, rec := range records {
		ok, err := filter.Match(rec)
		if err == nil && ok {
			kept = append(kept, rec)
		}
	}

	logger.Info("Answered",
		zap.Int("steps", len(plan.Steps)),
		zap.Int("records", len(kept)),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, AskResponse{Plan: plan.Steps, Records: kept})
}

func (s *Server) handleIntents(c *gin.Context) {
	cat := s.catalog

	resp := IntentsResponse{
		Version:      cat.Version,
		GeneratedAt:  cat.GeneratedAt,
		TotalIntents: cat.Len(),
		Intents:      make([]IntentSummary, 0, cat.Len()),
	}

	for _, in := range cat.Intents {
		resp.Intents = append(resp.Intents, IntentSummary{
			ID:          in.ID,
			Category:    in.Category,
			Description: in.Description,
			Steps:       in.Steps,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	n := s.catalog.Len()

	status := "ok"
	if n == 0 {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "intents": n})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     err.Error(),
		Code:      "BAD_REQUEST",
		RequestID: c.GetString(requestIDKey),
	})
}

// fail writes err with the status and code of its kind.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)

	c.JSON(status, ErrorResponse{
		Error:     graphplan.UserMessage(err),
		Code:      code,
		RequestID: c.GetString(requestIDKey),
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, graphplan.ErrLowConfidence):
		return http.StatusUnprocessableEntity, "LOW_CONFIDENCE"
	case errors.Is(err, graphplan.ErrNoEntity):
		return http.StatusUnprocessableEntity, "NO_ENTITY"
	case errors.Is(err, graphplan.ErrInvalidPlan):
		return http.StatusBadRequest, "INVALID_PLAN"
	case errors.Is(err, graphplan.ErrNoIntents), errors.Is(err, graphplan.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "NO_INTENTS"
	case errors.Is(err, graphplan.ErrQueryExecution):
		return http.StatusBadGateway, "QUERY_EXECUTION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
