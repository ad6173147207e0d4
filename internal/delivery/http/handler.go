package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/usecase"
)

// AnalyzeRequest is the payload for the inline analysis endpoint. Candidates
// come straight from the scraping collaborator; any scores they carry are
// recomputed server-side. Explicit budget bounds override the parsed ones.
type AnalyzeRequest struct {
	Query      string             `json:"query" binding:"required"`
	Candidates []domain.Candidate `json:"candidates"`
	BudgetMin  *float64           `json:"budgetMin"`
	BudgetMax  *float64           `json:"budgetMax"`
	Strategy   string             `json:"strategy"`
	TopK       int                `json:"topK"`
}

// RequirementRequest is the payload for the parse-only endpoint.
type RequirementRequest struct {
	Query string `json:"query" binding:"required"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	shoppingService *usecase.ShoppingService
}

// NewHandler creates a new HTTP handler
func NewHandler(shoppingService *usecase.ShoppingService) *Handler {
	return &Handler{
		shoppingService: shoppingService,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartlens-backend",
		"version": "1.0.0",
	})
}

// AnalyzeShopping scores, ranks and evaluates caller-supplied candidates
// against the query and returns the satisfaction verdict.
func (h *Handler) AnalyzeShopping(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	strategy, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.shoppingService.Analyze(c.Request.Context(), req.Query, req.Candidates, usecase.AnalyzeOptions{
		BudgetMin: req.BudgetMin,
		BudgetMax: req.BudgetMax,
		Strategy:  strategy,
		TopK:      req.TopK,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ParseRequirement returns the structured interpretation of a raw query so
// the voice/GUI shell can display what was understood before searching.
func (h *Handler) ParseRequirement(c *gin.Context) {
	var req RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	requirement, err := h.shoppingService.ParseRequirement(req.Query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, requirement)
}

// SearchProducts fetches candidates from the scrape feed and runs the full
// pipeline over them.
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter: q"})
		return
	}

	strategy, err := domain.ParseStrategy(c.Query("strategy"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topK := 0
	if raw := c.Query("topK"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "topK must be a non-negative integer"})
			return
		}
		topK = parsed
	}

	result, err := h.shoppingService.Search(c.Request.Context(), query, usecase.AnalyzeOptions{
		Strategy: strategy,
		TopK:     topK,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps sentinel errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFeedUnavailable), errors.Is(err, domain.ErrFeedAPIFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
