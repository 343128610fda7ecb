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
	"golang-market-oracle/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository is an implementation of AIRepository backed by the
// Google Gemini API.
type geminiAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) Complete(ctx context.Context, req *dto.CompletionRequest) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, "user"),
	}
	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, req.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return "", fmt.Errorf("failed to wait for token limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: req.Prompt}}}},
		GenerationConfig: &dto.GenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, req.Model, r.cfg.Gemini.APIKey)
	body, err := r.sendRequest(ctx, apiURL, jsonPayload)
	if err != nil {
		return "", err
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	return strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text), nil
}

func (r *geminiAIRepository) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	model := "models/" + r.cfg.Gemini.EmbeddingModel
	payload := dto.GeminiEmbedRequest{}
	for _, text := range texts {
		payload.Requests = append(payload.Requests, dto.GeminiEmbedContent{
			Model:   model,
			Content: dto.Content{Parts: []dto.Part{{Text: text}}},
		})
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:batchEmbedContents?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.EmbeddingModel, r.cfg.Gemini.APIKey)
	body, err := r.sendRequest(ctx, apiURL, jsonPayload)
	if err != nil {
		return nil, err
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

func (r *geminiAIRepository) sendRequest(ctx context.Context, url string, jsonPayload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonPayload))
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

	return body, nil
}
