package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/repository"
	"golang-market-oracle/pkg/logger"

	"github.com/google/uuid"
)

const (
	expertTemperature    = 0.7
	moderatorTemperature = 0.6
)

// councilPersonas is the fixed deliberation order. The order is
// semantically meaningful downstream and must not change.
var councilPersonas = []dto.ExpertPersona{
	{Role: "Technical Analyst", Bias: "chart-focused", Style: "conservative"},
	{Role: "Sentiment Analyst", Bias: "social-media-driven", Style: "aggressive"},
	{Role: "Macro Economist", Bias: "fundamentals-based", Style: "moderate"},
	{Role: "Risk Manager", Bias: "risk-focused", Style: "cautious"},
}

// Pacer spaces out sequential persona calls as a rate-limiting courtesy to
// the completion provider. Tests substitute a no-op implementation.
type Pacer interface {
	Wait(ctx context.Context) error
}

type delayPacer struct {
	delay time.Duration
}

// NewDelayPacer returns a Pacer that sleeps for a fixed duration, aborting
// early if the context is canceled.
func NewDelayPacer(delay time.Duration) Pacer {
	return &delayPacer{delay: delay}
}

func (p *delayPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

// CouncilService runs the four-persona deliberation plus moderator
// consensus protocol.
type CouncilService interface {
	RunCouncil(ctx context.Context, prompt, timeframe string, currentPrice float64, maxTokens int) (*dto.CouncilResult, error)
}

type councilService struct {
	cfg       *config.Config
	log       *logger.Logger
	aiRepo    repository.AIRepository
	snapshot  SnapshotService
	retriever ContextRetriever
	tracker   *PerformanceTracker
	pacer     Pacer
}

// NewCouncilService creates a CouncilService. The retriever may be nil when
// no vector index is configured; context enrichment then degrades to the
// market snapshot alone. A nil pacer gets the configured fixed delay.
func NewCouncilService(
	cfg *config.Config,
	log *logger.Logger,
	aiRepo repository.AIRepository,
	snapshot SnapshotService,
	retriever ContextRetriever,
	tracker *PerformanceTracker,
	pacer Pacer,
) (CouncilService, error) {
	if err := repository.ValidatePersonas(councilPersonas); err != nil {
		return nil, err
	}
	if pacer == nil {
		pacer = NewDelayPacer(cfg.Council.InterCallDelay)
	}
	return &councilService{
		cfg:       cfg,
		log:       log,
		aiRepo:    aiRepo,
		snapshot:  snapshot,
		retriever: retriever,
		tracker:   tracker,
		pacer:     pacer,
	}, nil
}

// RunCouncil executes the deliberation strictly sequentially: each persona
// waits for the prior completion, then the pacing delay. A parse failure
// for one persona degrades that seat's analysis; a completion failure
// aborts the whole run.
func (s *councilService) RunCouncil(ctx context.Context, prompt, timeframe string, currentPrice float64, maxTokens int) (*dto.CouncilResult, error) {
	runID := uuid.NewString()
	model := s.cfg.ActiveModels().Council

	s.log.Info("Starting council run",
		logger.StringField("run_id", runID),
		logger.StringField("timeframe", timeframe),
		logger.Float64Field("current_price", currentPrice),
	)

	enriched := s.buildEnrichedContext(ctx, prompt)

	discussion := make([]dto.DiscussionEntry, 0, len(councilPersonas))
	for i, persona := range councilPersonas {
		expertPrompt := repository.BuildExpertPrompt(persona, enriched)
		rawResponse, err := s.aiRepo.Complete(ctx, &dto.CompletionRequest{
			Prompt:      expertPrompt,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: expertTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("completion failed for persona %s: %w", persona.Role, err)
		}

		analysis := ParseExpertAnalysis(s.log, rawResponse)
		discussion = append(discussion, dto.DiscussionEntry{Expert: persona.Role, Analysis: analysis})

		if currentPrice > 0 {
			s.tracker.LogPrediction(persona.Role, analysis, timeframe, currentPrice)
		}

		if i < len(councilPersonas)-1 {
			if err := s.pacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("council run interrupted: %w", err)
			}
		}
	}

	consensus, err := s.moderate(ctx, discussion, model, maxTokens)
	if err != nil {
		return nil, err
	}

	leaderboard := s.tracker.Leaderboard()
	var totalPnL float64
	for _, entry := range leaderboard {
		totalPnL += entry.PnL
	}

	s.log.Info("Council run completed",
		logger.StringField("run_id", runID),
		logger.IntField("discussion_entries", len(discussion)),
		logger.IntField("ledger_size", len(leaderboard)),
	)

	return &dto.CouncilResult{
		RunID:      runID,
		Discussion: discussion,
		Consensus:  consensus,
		Mode:       "council",
		PerformanceMetrics: dto.PerformanceMetrics{
			Leaderboard:     leaderboard,
			TotalCouncilPnL: totalPnL,
		},
	}, nil
}

// moderate issues the single consensus completion. Unlike persona output,
// the moderator response is decoded strictly; anything else degrades to the
// fallback record with the raw text as the prediction.
func (s *councilService) moderate(ctx context.Context, discussion []dto.DiscussionEntry, model string, maxTokens int) (dto.ConsensusResult, error) {
	moderatorPrompt := repository.BuildModeratorPrompt(discussion)
	rawResponse, err := s.aiRepo.Complete(ctx, &dto.CompletionRequest{
		Prompt:      moderatorPrompt,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: moderatorTemperature,
	})
	if err != nil {
		return dto.ConsensusResult{}, fmt.Errorf("moderator completion failed: %w", err)
	}

	rawResponse = strings.TrimSpace(rawResponse)
	var consensus dto.ConsensusResult
	if err := json.Unmarshal([]byte(rawResponse), &consensus); err != nil {
		s.log.Warn("Moderator output is not valid JSON, falling back to raw text", logger.ErrorField(err))
		return dto.FallbackConsensus(rawResponse), nil
	}
	return consensus, nil
}

func (s *councilService) buildEnrichedContext(ctx context.Context, prompt string) string {
	marketContext := s.snapshot.MarketContext(ctx)

	historicalContext := ""
	if s.retriever != nil {
		retrieved, err := s.retriever.RetrieveContext(ctx, prompt)
		if err != nil {
			s.log.Warn("Context retrieval failed, continuing without it", logger.ErrorField(err))
		} else {
			historicalContext = retrieved
		}
	}

	return repository.BuildEnrichedContext(prompt, historicalContext, marketContext)
}
