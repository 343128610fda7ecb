package service

import (
	"strings"
	"testing"
	"time"

	"golang-market-oracle/internal/predictor/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() dto.ExpertAnalysis {
	return dto.ExpertAnalysis{
		Prediction: "YES wins",
		Confidence: 75,
		Factors:    []string{"momentum"},
		Risks:      []string{"volatility"},
	}
}

func TestLogPrediction_DerivesPriceLevels(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))

	tracker.LogPrediction("Technical Analyst", sampleAnalysis(), "short", 100)

	board := tracker.Leaderboard()
	require.Len(t, board, 1)

	entry := board[0]
	assert.Equal(t, "Technical Analyst", entry.AgentRole)
	assert.Equal(t, "YES wins", entry.Prediction)
	assert.Equal(t, 75, entry.Confidence)
	assert.Equal(t, "short", entry.Timeframe)
	assert.InDelta(t, 100.0, entry.EntryPrice, 1e-9)
	assert.InDelta(t, 108.0, entry.TargetPrice, 1e-9)
	assert.InDelta(t, 95.0, entry.StopLoss, 1e-9)
	assert.Zero(t, entry.PnL)
	assert.Zero(t, entry.AccuracyScore)
}

func TestLogPrediction_AgentIDFormat(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)
	tracker.nowFn = func() time.Time { return fixed }

	tracker.LogPrediction("Risk Manager", sampleAnalysis(), "short", 50)

	board := tracker.Leaderboard()
	require.Len(t, board, 1)

	agentID := board[0].AgentID
	assert.True(t, strings.HasPrefix(agentID, "Risk Manager_"), "agent id %q should start with the role", agentID)

	suffix := strings.TrimPrefix(agentID, "Risk Manager_")
	assert.NotContainsf(t, suffix, ":", "agent id %q", agentID)
	assert.NotContainsf(t, suffix, ".", "agent id %q", agentID)
	assert.NotContainsf(t, suffix, "-", "agent id %q", agentID)
	assert.NotContainsf(t, suffix, "+", "agent id %q", agentID)
	assert.Equal(t, "20250314T092653589793238Z", suffix)
}

func TestLogPrediction_DistinctIDsForRepeatedRole(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))

	tracker.LogPrediction("Macro Economist", sampleAnalysis(), "short", 100)
	tracker.LogPrediction("Macro Economist", sampleAnalysis(), "short", 100)

	board := tracker.Leaderboard()
	require.Len(t, board, 2)
	assert.NotEqual(t, board[0].AgentID, board[1].AgentID)
}

func TestUpdateOutcome_WinningPosition(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Sentiment Analyst", sampleAnalysis(), "short", 100)
	agentID := tracker.Leaderboard()[0].AgentID

	tracker.UpdateOutcome(agentID, 110)

	entry := tracker.Leaderboard()[0]
	assert.InDelta(t, 110.0, entry.ActualOutcome, 1e-9)
	assert.InDelta(t, 10.0, entry.PnL, 1e-9)
	assert.Equal(t, 1, entry.AccuracyScore)
}

func TestUpdateOutcome_LosingAndFlatPositions(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Sentiment Analyst", sampleAnalysis(), "short", 100)
	tracker.LogPrediction("Risk Manager", sampleAnalysis(), "short", 100)
	board := tracker.Leaderboard()

	tracker.UpdateOutcome(board[0].AgentID, 90)
	tracker.UpdateOutcome(board[1].AgentID, 100)

	board = tracker.Leaderboard()
	assert.InDelta(t, -10.0, board[0].PnL, 1e-9)
	assert.Equal(t, 0, board[0].AccuracyScore)
	// A flat outcome is not a win.
	assert.InDelta(t, 0.0, board[1].PnL, 1e-9)
	assert.Equal(t, 0, board[1].AccuracyScore)
}

func TestUpdateOutcome_UnknownAgentIsNoOp(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Technical Analyst", sampleAnalysis(), "short", 100)

	tracker.UpdateOutcome("nobody_20250101T000000Z", 150)

	entry := tracker.Leaderboard()[0]
	assert.Zero(t, entry.ActualOutcome)
	assert.Zero(t, entry.PnL)
}

func TestLeaderboard_ReturnsIndependentCopy(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Technical Analyst", sampleAnalysis(), "short", 100)

	board := tracker.Leaderboard()
	board[0].Prediction = "tampered"

	assert.Equal(t, "YES wins", tracker.Leaderboard()[0].Prediction)
}

func TestTotalPnL_SumsLifetimeLedger(t *testing.T) {
	tracker := NewPerformanceTracker(newTestLogger(t))
	tracker.LogPrediction("Technical Analyst", sampleAnalysis(), "short", 100)
	tracker.LogPrediction("Risk Manager", sampleAnalysis(), "short", 200)
	board := tracker.Leaderboard()

	tracker.UpdateOutcome(board[0].AgentID, 110) // +10%
	tracker.UpdateOutcome(board[1].AgentID, 190) // -5%

	assert.InDelta(t, 5.0, tracker.TotalPnL(), 1e-9)
}
