package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-market-oracle/internal/ingestor/config"
	"golang-market-oracle/internal/ingestor/dto"
	"golang-market-oracle/pkg/logger"

	"golang.org/x/time/rate"
)

type openaiEmbeddingRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewOpenAIEmbeddingRepository creates an EmbeddingRepository backed by an
// OpenAI-compatible embeddings API.
func NewOpenAIEmbeddingRepository(cfg *config.Config, log *logger.Logger) EmbeddingRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.OpenAI.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &openaiEmbeddingRepository{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *openaiEmbeddingRepository) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.OpenAIEmbeddingReq{
		Model: r.cfg.OpenAI.EmbeddingModel,
		Input: texts,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := strings.TrimRight(r.cfg.OpenAI.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.OpenAI.APIKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from OpenAI API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from OpenAI API: %d - %s", resp.StatusCode, string(body))
	}

	var embRes dto.OpenAIEmbeddingRes
	if err := json.Unmarshal(body, &embRes); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	embeddings := make([][]float64, len(embRes.Data))
	for _, d := range embRes.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
