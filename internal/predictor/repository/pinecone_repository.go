package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"
)

type pineconeRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
}

// NewPineconeRepository creates a VectorRepository over a Pinecone-style
// index endpoint.
func NewPineconeRepository(cfg *config.Config, log *logger.Logger) VectorRepository {
	return &pineconeRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (r *pineconeRepository) Query(ctx context.Context, vector []float64, topK int) ([]dto.PineconeMatch, error) {
	payload := dto.PineconeQueryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	body, err := r.sendRequest(ctx, "/query", payload)
	if err != nil {
		return nil, err
	}

	var queryResp dto.PineconeQueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	return queryResp.Matches, nil
}

func (r *pineconeRepository) Upsert(ctx context.Context, vectors []dto.PineconeVector) error {
	payload := dto.PineconeUpsertRequest{Vectors: vectors}

	body, err := r.sendRequest(ctx, "/vectors/upsert", payload)
	if err != nil {
		return err
	}

	var upsertResp dto.PineconeUpsertResponse
	if err := json.Unmarshal(body, &upsertResp); err != nil {
		return fmt.Errorf("failed to decode upsert response: %w", err)
	}

	r.log.Debug("Upserted vectors", logger.IntField("count", upsertResp.UpsertedCount))
	return nil
}

func (r *pineconeRepository) sendRequest(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Pinecone.IndexURL+path, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", r.cfg.Pinecone.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to vector index: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		r.log.Error("Received non-OK response from vector index", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from vector index: %d - %s", resp.StatusCode, string(body))
	}

	return body, nil
}
