package service

import (
	"context"
	"errors"
	"fmt"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/repository"
	"golang-market-oracle/pkg/logger"
	"golang-market-oracle/pkg/telegram"
	"golang-market-oracle/pkg/utils"
)

const (
	ModeFast    = "fast"
	ModeDeep    = "deep"
	ModeCouncil = "council"

	fastDeepTemperature = 0.5
)

// ErrInvalidMode is returned for any mode outside the closed fast/deep/
// council set. Unknown modes are rejected, never defaulted.
var ErrInvalidMode = errors.New("invalid mode: choose 'fast', 'deep', or 'council'")

// PredictionOutcome is the dispatcher result: Text for fast/deep runs,
// Council for council runs.
type PredictionOutcome struct {
	Mode    string
	Text    string
	Council *dto.CouncilResult
}

// PredictionService is the top-level entry point selecting fast, deep, or
// council behavior for a prediction request.
type PredictionService interface {
	Predict(ctx context.Context, req *dto.PredictRequest) (*PredictionOutcome, error)
}

type predictionService struct {
	cfg       *config.Config
	log       *logger.Logger
	aiRepo    repository.AIRepository
	snapshot  SnapshotService
	retriever ContextRetriever
	council   CouncilService
	notifier  telegram.Notifier
}

// NewPredictionService creates the dispatcher. The notifier and retriever
// are optional; nil disables consensus notifications and deep-mode context
// enrichment respectively.
func NewPredictionService(
	cfg *config.Config,
	log *logger.Logger,
	aiRepo repository.AIRepository,
	snapshot SnapshotService,
	retriever ContextRetriever,
	council CouncilService,
	notifier telegram.Notifier,
) PredictionService {
	return &predictionService{
		cfg:       cfg,
		log:       log,
		aiRepo:    aiRepo,
		snapshot:  snapshot,
		retriever: retriever,
		council:   council,
		notifier:  notifier,
	}
}

func (s *predictionService) Predict(ctx context.Context, req *dto.PredictRequest) (*PredictionOutcome, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeFast
	}
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = "short"
	}

	s.log.Info("Starting new prediction request", logger.StringField("mode", mode))

	switch mode {
	case ModeFast, ModeDeep:
		text, err := s.predictSingleShot(ctx, req.Prompt, mode)
		if err != nil {
			return nil, err
		}
		return &PredictionOutcome{Mode: mode, Text: text}, nil
	case ModeCouncil:
		result, err := s.council.RunCouncil(ctx, req.Prompt, timeframe, s.cfg.Council.DefaultEntryPrice, s.cfg.Council.MaxTokens)
		if err != nil {
			return nil, err
		}
		s.notifyConsensus(result)
		return &PredictionOutcome{Mode: mode, Council: result}, nil
	default:
		return nil, ErrInvalidMode
	}
}

// predictSingleShot composes one enriched prompt and issues exactly one
// completion call. Market data is gathered for both tiers; historical
// context only for deep, and only best-effort.
func (s *predictionService) predictSingleShot(ctx context.Context, prompt, mode string) (string, error) {
	deep := mode == ModeDeep

	marketContext := s.snapshot.MarketContext(ctx)

	historicalContext := ""
	if deep && s.retriever != nil {
		retrieved, err := s.retriever.RetrieveContext(ctx, prompt)
		if err != nil {
			s.log.Warn("Context retrieval failed, continuing without it", logger.ErrorField(err))
		} else {
			historicalContext = retrieved
		}
	}

	models := s.cfg.ActiveModels()
	model := models.Fast
	if deep {
		model = models.Deep
	}

	fullPrompt := repository.BuildBetRecommendationPrompt(prompt, historicalContext, marketContext, deep)
	result, err := s.aiRepo.Complete(ctx, &dto.CompletionRequest{
		Prompt:      fullPrompt,
		Model:       model,
		MaxTokens:   s.cfg.Council.MaxTokens,
		Temperature: fastDeepTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed for %s mode: %w", mode, err)
	}

	return result, nil
}

// notifyConsensus pushes the consensus to Telegram without blocking the
// response path.
func (s *predictionService) notifyConsensus(result *dto.CouncilResult) {
	if s.notifier == nil {
		return
	}
	message := telegram.FormatCouncilResult(result)
	utils.GoSafe(func() {
		if err := s.notifier.SendMessage(message); err != nil {
			s.log.Warn("Failed to send council notification", logger.ErrorField(err))
		}
	})
}
