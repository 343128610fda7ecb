package repository

import (
	"context"

	"golang-market-oracle/internal/predictor/dto"
)

// AIRepository is the completion capability consumed by the prediction
// service. Implementations wrap a single upstream provider.
type AIRepository interface {
	Complete(ctx context.Context, req *dto.CompletionRequest) (string, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// KalshiRepository exposes the Kalshi market snapshot capability.
type KalshiRepository interface {
	GetMarkets(ctx context.Context, limit int, status string, minVolume int) ([]dto.KalshiMarket, error)
}

// PolymarketRepository exposes the Polymarket market snapshot capability.
type PolymarketRepository interface {
	GetMarkets(ctx context.Context) ([]dto.PolymarketMarket, error)
}

// VectorRepository exposes the context retrieval capability over a
// Pinecone-style vector index.
type VectorRepository interface {
	Query(ctx context.Context, vector []float64, topK int) ([]dto.PineconeMatch, error)
	Upsert(ctx context.Context, vectors []dto.PineconeVector) error
}
