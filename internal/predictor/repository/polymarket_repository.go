package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"

	"golang.org/x/time/rate"
)

type polymarketRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewPolymarketRepository creates a PolymarketRepository over the gateway API.
func NewPolymarketRepository(cfg *config.Config, log *logger.Logger) PolymarketRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Polymarket.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &polymarketRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

func (r *polymarketRepository) GetMarkets(ctx context.Context) ([]dto.PolymarketMarket, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	reqURL := r.cfg.Polymarket.BaseURL + "/markets"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Polymarket API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		r.log.Error("Received non-OK response from Polymarket API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Polymarket API: %d - %s", resp.StatusCode, string(body))
	}

	var marketsResp dto.PolymarketMarketsResponse
	if err := json.Unmarshal(body, &marketsResp); err != nil {
		return nil, fmt.Errorf("failed to decode Polymarket markets response: %w", err)
	}

	return marketsResp.Data, nil
}
