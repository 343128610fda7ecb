package http

import (
	"errors"
	"net/http"

	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/service"
	"golang-market-oracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictHandler handles HTTP requests for predictions.
type PredictHandler struct {
	predictionService service.PredictionService
	logger            *logger.Logger
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(predictionService service.PredictionService, logger *logger.Logger) *PredictHandler {
	return &PredictHandler{predictionService: predictionService, logger: logger}
}

// RegisterRoutes registers the prediction routes to the Echo group.
func (h *PredictHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Predict)
}

// Predict runs a prediction request in fast, deep, or council mode.
func (h *PredictHandler) Predict(c echo.Context) error {
	var req dto.PredictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please provide a prompt in the request body"})
	}

	outcome, err := h.predictionService.Predict(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMode) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		h.logger.Error("Prediction request failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Internal server error"})
	}

	if outcome.Mode == service.ModeCouncil {
		return c.JSON(http.StatusOK, councilResponse(outcome))
	}

	return c.JSON(http.StatusOK, dto.PredictResponse{Success: true, PredictionResult: outcome.Text})
}

// councilResponse projects the internal bundle onto the external contract:
// only two consensus fields are surfaced, with placeholders when the
// underlying consensus is incomplete.
func councilResponse(outcome *service.PredictionOutcome) dto.CouncilResponse {
	finalPrediction := outcome.Council.Consensus.FinalPrediction
	if finalPrediction == "" {
		finalPrediction = "Consensus building..."
	}

	discussion := outcome.Council.Discussion
	if discussion == nil {
		discussion = []dto.DiscussionEntry{}
	}

	return dto.CouncilResponse{
		Success: true,
		Mode:    service.ModeCouncil,
		Consensus: dto.ConsensusProjection{
			FinalPrediction: finalPrediction,
			ConfidenceLevel: outcome.Council.Consensus.ConfidenceLevel,
		},
		Discussion: discussion,
	}
}
