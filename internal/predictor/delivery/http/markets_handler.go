package http

import (
	"net/http"
	"strconv"

	"golang-market-oracle/internal/predictor/service"
	"golang-market-oracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketsHandler proxies the market snapshot providers.
type MarketsHandler struct {
	snapshot service.SnapshotService
	logger   *logger.Logger
}

// NewMarketsHandler creates a new MarketsHandler.
func NewMarketsHandler(snapshot service.SnapshotService, logger *logger.Logger) *MarketsHandler {
	return &MarketsHandler{snapshot: snapshot, logger: logger}
}

// RegisterRoutes registers the market routes to the Echo group.
func (h *MarketsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/kalshi", h.GetKalshiMarkets)
	g.GET("/polymarket", h.GetPolymarketMarkets)
}

// GetKalshiMarkets returns open Kalshi markets.
func (h *MarketsHandler) GetKalshiMarkets(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	minVolume, _ := strconv.Atoi(c.QueryParam("min_volume"))
	status := c.QueryParam("status")

	markets, err := h.snapshot.KalshiMarkets(c.Request().Context(), limit, status, minVolume)
	if err != nil {
		h.logger.Error("Failed to fetch Kalshi markets", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch markets"})
	}

	return c.JSON(http.StatusOK, echo.Map{"markets": markets})
}

// GetPolymarketMarkets returns active Polymarket markets.
func (h *MarketsHandler) GetPolymarketMarkets(c echo.Context) error {
	markets, err := h.snapshot.PolymarketMarkets(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to fetch Polymarket markets", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch markets"})
	}

	return c.JSON(http.StatusOK, echo.Map{"markets": markets})
}
