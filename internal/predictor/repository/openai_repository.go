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

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"

	"golang.org/x/time/rate"
)

type openaiAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewOpenAIRepository creates an AIRepository backed by an OpenAI-compatible
// chat completions API.
func NewOpenAIRepository(cfg *config.Config, log *logger.Logger) AIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.OpenAI.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &openaiAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *openaiAIRepository) Complete(ctx context.Context, req *dto.CompletionRequest) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.OpenAPIReq{
		Model: req.Model,
		Messages: []dto.Message{
			{
				Role:    "user",
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := strings.TrimRight(r.cfg.OpenAI.BaseURL, "/") + "/chat/completions"
	r.logger.Debug("Sending request to OpenAI API", logger.StringField("url", url), logger.StringField("model", req.Model))

	body, err := r.sendRequest(ctx, url, jsonPayload)
	if err != nil {
		return "", err
	}

	var resp dto.OpenAPIRes
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("invalid response from OpenAI API: no choices found")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (r *openaiAIRepository) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
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
	body, err := r.sendRequest(ctx, url, jsonPayload)
	if err != nil {
		return nil, err
	}

	var resp dto.OpenAIEmbeddingRes
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

func (r *openaiAIRepository) sendRequest(ctx context.Context, url string, jsonPayload []byte) ([]byte, error) {
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

	return body, nil
}
