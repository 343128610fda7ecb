package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/dto"
	"golang-market-oracle/pkg/logger"

	"golang.org/x/time/rate"
)

type geminiEmbeddingRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewGeminiEmbeddingRepository creates an EmbeddingRepository backed by the
// Gemini batchEmbedContents API.
func NewGeminiEmbeddingRepository(cfg *config.Config, log *logger.Logger) EmbeddingRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiEmbeddingRepository{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *geminiEmbeddingRepository) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	model := "models/" + r.cfg.Gemini.EmbeddingModel
	payload := dto.GeminiEmbedRequest{}
	for _, text := range texts {
		payload.Requests = append(payload.Requests, dto.GeminiEmbedContent{
			Model:   model,
			Content: dto.GeminiContent{Parts: []dto.GeminiPart{{Text: text}}},
		})
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:batchEmbedContents?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.EmbeddingModel, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from Gemini API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var embedResp dto.GeminiEmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	embeddings := make([][]float64, 0, len(embedResp.Embeddings))
	for _, e := range embedResp.Embeddings {
		embeddings = append(embeddings, e.Values)
	}
	return embeddings, nil
}
