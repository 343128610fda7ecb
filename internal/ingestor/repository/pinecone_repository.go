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
)

type pineconeRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
}

// NewPineconeRepository creates a VectorRepository backed by a Pinecone-style
// serverless index.
func NewPineconeRepository(cfg *config.Config, log *logger.Logger) VectorRepository {
	return &pineconeRepository{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cfg:    cfg,
		logger: log,
	}
}

func (r *pineconeRepository) Upsert(ctx context.Context, vectors []dto.PineconeVector) (int, error) {
	payload := dto.PineconeUpsertRequest{Vectors: vectors}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := strings.TrimRight(r.cfg.Pinecone.IndexURL, "/") + "/vectors/upsert"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return 0, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", r.cfg.Pinecone.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request to vector index: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from vector index", logger.IntField("status_code", resp.StatusCode))
		return 0, fmt.Errorf("received non-OK response from vector index: %d - %s", resp.StatusCode, string(body))
	}

	var upsertResp dto.PineconeUpsertResponse
	if err := json.Unmarshal(body, &upsertResp); err != nil {
		return 0, fmt.Errorf("failed to decode upsert response: %w", err)
	}

	return upsertResp.UpsertedCount, nil
}
