package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/repository"
	"golang-market-oracle/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

const marketContextCacheKey = "snapshot:market_context"

// SnapshotService gathers live market data from both providers and renders
// the market context block used to enrich prompts.
type SnapshotService interface {
	// MarketContext returns the formatted snapshot. Provider failures are
	// logged and degrade to whatever data remains; both failing yields "".
	MarketContext(ctx context.Context) string
	KalshiMarkets(ctx context.Context, limit int, status string, minVolume int) ([]dto.KalshiMarket, error)
	PolymarketMarkets(ctx context.Context) ([]dto.PolymarketMarket, error)
}

type snapshotService struct {
	cfg            *config.Config
	log            *logger.Logger
	kalshiRepo     repository.KalshiRepository
	polymarketRepo repository.PolymarketRepository
	cache          *gocache.Cache
}

// NewSnapshotService creates a SnapshotService with a short-lived context
// cache so bursts of predict requests do not hammer the providers.
func NewSnapshotService(cfg *config.Config, log *logger.Logger, kalshiRepo repository.KalshiRepository, polymarketRepo repository.PolymarketRepository) SnapshotService {
	return &snapshotService{
		cfg:            cfg,
		log:            log,
		kalshiRepo:     kalshiRepo,
		polymarketRepo: polymarketRepo,
		cache:          gocache.New(cfg.Snapshot.CacheTTL, 2*cfg.Snapshot.CacheTTL),
	}
}

func (s *snapshotService) MarketContext(ctx context.Context) string {
	if cached, found := s.cache.Get(marketContextCacheKey); found {
		return cached.(string)
	}

	// The two providers are independent reads; fetch them concurrently.
	var (
		wg          sync.WaitGroup
		kalshi      []dto.KalshiMarket
		polymarkets []dto.PolymarketMarket
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		markets, err := s.kalshiRepo.GetMarkets(ctx, s.cfg.Snapshot.MarketLimit, "open", s.cfg.Snapshot.MinVolume)
		if err != nil {
			s.log.Warn("Kalshi market fetch failed", logger.ErrorField(err))
			return
		}
		kalshi = markets
	}()
	go func() {
		defer wg.Done()
		markets, err := s.polymarketRepo.GetMarkets(ctx)
		if err != nil {
			s.log.Warn("Polymarket market fetch failed", logger.ErrorField(err))
			return
		}
		polymarkets = markets
	}()
	wg.Wait()

	if len(kalshi) == 0 {
		s.log.Warn("No active Kalshi markets fetched")
	}
	if len(polymarkets) == 0 {
		s.log.Warn("No active Polymarket markets fetched")
	}

	var sb strings.Builder
	for _, m := range kalshi {
		writeMarketLine(&sb, normalizeKalshiMarket(m))
	}
	for _, m := range polymarkets {
		writeMarketLine(&sb, normalizePolymarket(m))
	}

	marketContext := strings.TrimRight(sb.String(), "\n")
	if marketContext != "" {
		s.cache.SetDefault(marketContextCacheKey, marketContext)
	}
	return marketContext
}

func (s *snapshotService) KalshiMarkets(ctx context.Context, limit int, status string, minVolume int) ([]dto.KalshiMarket, error) {
	return s.kalshiRepo.GetMarkets(ctx, limit, status, minVolume)
}

func (s *snapshotService) PolymarketMarkets(ctx context.Context) ([]dto.PolymarketMarket, error) {
	return s.polymarketRepo.GetMarkets(ctx)
}

func normalizeKalshiMarket(m dto.KalshiMarket) dto.Market {
	return dto.Market{
		Ticker:   m.Ticker,
		Title:    m.Title,
		YesPrice: m.YesPrice,
		NoPrice:  m.NoPrice,
		Volume:   m.Volume,
		Source:   "Kalshi",
	}
}

func normalizePolymarket(m dto.PolymarketMarket) dto.Market {
	ticker := m.Ticker
	if ticker == "" {
		ticker = m.ID
	}
	return dto.Market{
		Ticker:   ticker,
		Title:    m.Title,
		YesPrice: m.YesPrice,
		NoPrice:  m.NoPrice,
		Volume:   m.VolumeUSD,
		Source:   "Polymarket",
	}
}

func writeMarketLine(sb *strings.Builder, m dto.Market) {
	title := m.Title
	if title == "" {
		title = "Unknown"
	}
	ticker := m.Ticker
	if ticker == "" {
		ticker = "N/A"
	}

	priceLine := "No active price data"
	if m.YesPrice != nil && m.NoPrice != nil {
		priceLine = fmt.Sprintf("YES $%.2f | NO $%.2f", *m.YesPrice, *m.NoPrice)
	}

	fmt.Fprintf(sb, "- [%s] %s (%s)\n  %s\n  Volume: $%.0f\n", m.Source, title, ticker, priceLine, m.Volume)
}
