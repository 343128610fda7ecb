package http

import (
	"net/http"

	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/service"
	"golang-market-oracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PerformanceHandler exposes the agent performance ledger.
type PerformanceHandler struct {
	tracker *service.PerformanceTracker
	logger  *logger.Logger
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(tracker *service.PerformanceTracker, logger *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{tracker: tracker, logger: logger}
}

// RegisterRoutes registers the performance routes to the Echo group.
func (h *PerformanceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/leaderboard", h.GetLeaderboard)
	g.POST("/outcomes", h.UpdateOutcome)
}

// GetLeaderboard returns the full prediction ledger snapshot.
func (h *PerformanceHandler) GetLeaderboard(c echo.Context) error {
	leaderboard := h.tracker.Leaderboard()
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"leaderboard": leaderboard,
	})
}

// UpdateOutcome records a realized outcome for a ledger entry. An unknown
// agent ID is ignored and the response is 200 either way.
func (h *PerformanceHandler) UpdateOutcome(c echo.Context) error {
	var req dto.UpdateOutcomeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.AgentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please provide an agent_id in the request body"})
	}

	h.tracker.UpdateOutcome(req.AgentID, req.ActualOutcome)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
