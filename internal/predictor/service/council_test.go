package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAIRepo replays a scripted sequence of completions.
type fakeAIRepo struct {
	responses []string
	errAt     int // 1-based call number that fails; 0 disables
	calls     []dto.CompletionRequest
}

func (f *fakeAIRepo) Complete(_ context.Context, req *dto.CompletionRequest) (string, error) {
	f.calls = append(f.calls, *req)
	if f.errAt > 0 && len(f.calls) == f.errAt {
		return "", errors.New("provider unavailable")
	}
	if len(f.calls) > len(f.responses) {
		return "", fmt.Errorf("unexpected call %d", len(f.calls))
	}
	return f.responses[len(f.calls)-1], nil
}

func (f *fakeAIRepo) EmbedTexts(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2}
	}
	return out, nil
}

type fakeSnapshot struct {
	context string
}

func (f *fakeSnapshot) MarketContext(context.Context) string { return f.context }
func (f *fakeSnapshot) KalshiMarkets(context.Context, int, string, int) ([]dto.KalshiMarket, error) {
	return nil, nil
}
func (f *fakeSnapshot) PolymarketMarkets(context.Context) ([]dto.PolymarketMarket, error) {
	return nil, nil
}

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return nil
}

func councilTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OpenAI.CouncilModel = "test-council-model"
	return cfg
}

func expertResponse(prediction string, confidence int) string {
	return fmt.Sprintf(`{"prediction": %q, "confidence": %d, "factors": ["f"], "risks": ["r"]}`, prediction, confidence)
}

const moderatorResponse = `{"final_prediction": "YES wins", "confidence_level": 80, "profit_strategy": "buy YES", "risk_assessment": "low", "sentiment_score": 72}`

func newCouncilForTest(t *testing.T, ai *fakeAIRepo, tracker *PerformanceTracker, pacer Pacer) CouncilService {
	t.Helper()
	svc, err := NewCouncilService(councilTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, nil, tracker, pacer)
	require.NoError(t, err)
	return svc
}

func TestRunCouncil_FullDeliberation(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{
		expertResponse("technical up", 70),
		expertResponse("sentiment up", 65),
		expertResponse("macro flat", 55),
		expertResponse("too risky", 40),
		moderatorResponse,
	}}
	pacer := &countingPacer{}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, pacer)

	result, err := svc.RunCouncil(context.Background(), "Will BTC close above 100k?", "short", 100, 500)
	require.NoError(t, err)

	require.Len(t, ai.calls, 5)
	require.Len(t, result.Discussion, 4)
	assert.Equal(t, "Technical Analyst", result.Discussion[0].Expert)
	assert.Equal(t, "Sentiment Analyst", result.Discussion[1].Expert)
	assert.Equal(t, "Macro Economist", result.Discussion[2].Expert)
	assert.Equal(t, "Risk Manager", result.Discussion[3].Expert)
	assert.Equal(t, "technical up", result.Discussion[0].Analysis.Prediction)

	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.7, ai.calls[i].Temperature, 1e-9)
		assert.Equal(t, "test-council-model", ai.calls[i].Model)
	}
	assert.InDelta(t, 0.6, ai.calls[4].Temperature, 1e-9)

	// Pacing happens between persona calls only, never after the last one.
	assert.Equal(t, 3, pacer.waits)

	assert.Equal(t, "YES wins", result.Consensus.FinalPrediction)
	assert.True(t, result.Consensus.ConfidenceLevel.Valid)
	assert.InDelta(t, 80.0, result.Consensus.ConfidenceLevel.Value, 1e-9)

	assert.Equal(t, "council", result.Mode)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.PerformanceMetrics.Leaderboard, 4)
}

func TestRunCouncil_EachExpertSeesOwnFocus(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{
		expertResponse("a", 1),
		expertResponse("b", 2),
		expertResponse("c", 3),
		expertResponse("d", 4),
		moderatorResponse,
	}}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	_, err := svc.RunCouncil(context.Background(), "scenario", "short", 0, 500)
	require.NoError(t, err)

	assert.Contains(t, ai.calls[0].Prompt, "Technical Analyst")
	assert.Contains(t, ai.calls[0].Prompt, "price patterns")
	assert.Contains(t, ai.calls[1].Prompt, "social media trends")
	assert.Contains(t, ai.calls[2].Prompt, "economic indicators")
	assert.Contains(t, ai.calls[3].Prompt, "risk/reward ratios")
	// The moderator sees the serialized discussion, not the scenario.
	assert.Contains(t, ai.calls[4].Prompt, "council moderator")
	assert.Contains(t, ai.calls[4].Prompt, `"expert": "Technical Analyst"`)
}

func TestRunCouncil_ParseFailureDegradesSingleSeat(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{
		expertResponse("ok", 70),
		"I refuse to answer in JSON.",
		expertResponse("ok too", 60),
		expertResponse("fine", 50),
		moderatorResponse,
	}}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	result, err := svc.RunCouncil(context.Background(), "scenario", "short", 100, 500)
	require.NoError(t, err)

	require.Len(t, result.Discussion, 4)
	degraded := result.Discussion[1].Analysis
	assert.Equal(t, "Error parsing response", degraded.Prediction)
	assert.Equal(t, 0, degraded.Confidence)
	assert.Equal(t, []string{"Parsing error"}, degraded.Factors)

	// The degraded seat is still logged to the ledger.
	assert.Len(t, result.PerformanceMetrics.Leaderboard, 4)
}

func TestRunCouncil_CompletionFailureAbortsRun(t *testing.T) {
	ai := &fakeAIRepo{
		responses: []string{expertResponse("ok", 70)},
		errAt:     2,
	}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	result, err := svc.RunCouncil(context.Background(), "scenario", "short", 100, 500)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "Sentiment Analyst")
}

func TestRunCouncil_ModeratorProseFallsBack(t *testing.T) {
	prose := "The council leans YES but cannot quantify it."
	ai := &fakeAIRepo{responses: []string{
		expertResponse("a", 1),
		expertResponse("b", 2),
		expertResponse("c", 3),
		expertResponse("d", 4),
		prose,
	}}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	result, err := svc.RunCouncil(context.Background(), "scenario", "short", 0, 500)
	require.NoError(t, err)

	assert.Equal(t, prose, result.Consensus.FinalPrediction)
	assert.Equal(t, "N/A", result.Consensus.ProfitStrategy)
	assert.Equal(t, "N/A", result.Consensus.RiskAssessment)
	assert.False(t, result.Consensus.ConfidenceLevel.Valid)
	assert.False(t, result.Consensus.SentimentScore.Valid)
}

func TestRunCouncil_ZeroPriceSkipsLedger(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{
		expertResponse("a", 1),
		expertResponse("b", 2),
		expertResponse("c", 3),
		expertResponse("d", 4),
		moderatorResponse,
	}}
	tracker := NewPerformanceTracker(newTestLogger(t))
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	result, err := svc.RunCouncil(context.Background(), "scenario", "short", 0, 500)
	require.NoError(t, err)

	assert.Empty(t, result.PerformanceMetrics.Leaderboard)
	assert.Zero(t, result.PerformanceMetrics.TotalCouncilPnL)
}

func TestRunCouncil_TotalPnLSpansEarlierRuns(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Technical Analyst", sampleAnalysis(), "short", 100)
	earlier := tracker.Leaderboard()[0].AgentID
	tracker.UpdateOutcome(earlier, 110)

	ai := &fakeAIRepo{responses: []string{
		expertResponse("a", 1),
		expertResponse("b", 2),
		expertResponse("c", 3),
		expertResponse("d", 4),
		moderatorResponse,
	}}
	svc := newCouncilForTest(t, ai, tracker, &countingPacer{})

	result, err := svc.RunCouncil(context.Background(), "scenario", "short", 100, 500)
	require.NoError(t, err)

	assert.Len(t, result.PerformanceMetrics.Leaderboard, 5)
	assert.InDelta(t, 10.0, result.PerformanceMetrics.TotalCouncilPnL, 1e-9)
}

func TestRunCouncil_EnrichedContextInExpertPrompts(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{
		expertResponse("a", 1),
		expertResponse("b", 2),
		expertResponse("c", 3),
		expertResponse("d", 4),
		moderatorResponse,
	}}
	tracker := NewPerformanceTracker(newTestLogger(t))
	cfg := councilTestConfig()
	svc, err := NewCouncilService(cfg, newTestLogger(t), ai, &fakeSnapshot{context: "- [Kalshi] Test market (TEST)"}, nil, tracker, &countingPacer{})
	require.NoError(t, err)

	_, err = svc.RunCouncil(context.Background(), "Will it rain?", "short", 0, 500)
	require.NoError(t, err)

	prompt := ai.calls[0].Prompt
	assert.Contains(t, prompt, "Will it rain?")
	assert.Contains(t, prompt, "LIVE MARKET DATA:")
	assert.Contains(t, prompt, "- [Kalshi] Test market (TEST)")
	assert.Contains(t, prompt, "No historical context available")
	assert.True(t, strings.Contains(prompt, "HISTORICAL CONTEXT:"))
}
