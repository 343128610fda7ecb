package repository

import (
	"context"

	"golang-market-oracle/internal/entity"
	"golang-market-oracle/internal/ingestor/dto"
)

// NewsArticleRepository defines the interface for interacting with stored articles.
type NewsArticleRepository interface {
	CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) (bool, error)
	FindExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	MarkIndexed(ctx context.Context, id uint) error
}

// EmbeddingRepository defines the interface for text embedding providers.
type EmbeddingRepository interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorRepository defines the interface for the vector index.
type VectorRepository interface {
	Upsert(ctx context.Context, vectors []dto.PineconeVector) (int, error)
}
