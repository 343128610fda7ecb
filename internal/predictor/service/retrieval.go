package service

import (
	"context"
	"fmt"
	"strings"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/repository"
	"golang-market-oracle/pkg/logger"
)

// ContextRetriever looks up historical passages related to a query from the
// vector index. Callers treat it as best-effort enrichment.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string) (string, error)
}

type contextRetriever struct {
	cfg        *config.Config
	log        *logger.Logger
	aiRepo     repository.AIRepository
	vectorRepo repository.VectorRepository
}

// NewContextRetriever creates a ContextRetriever over the embedding and
// vector-query capabilities.
func NewContextRetriever(cfg *config.Config, log *logger.Logger, aiRepo repository.AIRepository, vectorRepo repository.VectorRepository) ContextRetriever {
	return &contextRetriever{
		cfg:        cfg,
		log:        log,
		aiRepo:     aiRepo,
		vectorRepo: vectorRepo,
	}
}

func (r *contextRetriever) RetrieveContext(ctx context.Context, query string) (string, error) {
	embeddings, err := r.aiRepo.EmbedTexts(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return "", fmt.Errorf("embedding provider returned no vectors")
	}

	matches, err := r.vectorRepo.Query(ctx, embeddings[0], r.cfg.Pinecone.TopK)
	if err != nil {
		return "", fmt.Errorf("failed to query vector index: %w", err)
	}

	passages := make([]string, 0, len(matches))
	for _, m := range matches {
		if text, ok := m.Metadata["text"].(string); ok && text != "" {
			passages = append(passages, text)
		}
	}

	joined := strings.Join(passages, "\n")
	r.log.Debug("Retrieved historical context", logger.IntField("passages", len(passages)), logger.IntField("chars", len(joined)))
	return joined, nil
}
