package service

import (
	"strings"
	"sync"
	"time"

	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"
)

const (
	targetPriceMultiplier = 1.08
	stopLossMultiplier    = 0.95
)

var agentIDReplacer = strings.NewReplacer(":", "", ".", "", "-", "", "+", "")

// PerformanceTracker is the in-memory ledger of per-agent predictions and
// realized outcomes. It is shared across concurrent council runs, so all
// mutation is serialized behind a mutex. The ledger lives for the process
// lifetime only; nothing is persisted.
type PerformanceTracker struct {
	mu     sync.Mutex
	log    *logger.Logger
	ledger []dto.PredictionLog
	nowFn  func() time.Time
}

// NewPerformanceTracker creates an empty tracker. One instance is owned by
// the service root and injected into the orchestrator.
func NewPerformanceTracker(log *logger.Logger) *PerformanceTracker {
	return &PerformanceTracker{
		log:   log,
		nowFn: time.Now,
	}
}

// LogPrediction appends a new ledger entry for one persona prediction.
// Target and stop levels are derived from the entry price.
func (t *PerformanceTracker) LogPrediction(agentRole string, analysis dto.ExpertAnalysis, timeframe string, entryPrice float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFn()
	entry := dto.PredictionLog{
		Timestamp:   now,
		AgentID:     agentRole + "_" + agentIDReplacer.Replace(now.UTC().Format(time.RFC3339Nano)),
		AgentRole:   agentRole,
		Prediction:  analysis.Prediction,
		Confidence:  analysis.Confidence,
		Timeframe:   timeframe,
		EntryPrice:  entryPrice,
		TargetPrice: entryPrice * targetPriceMultiplier,
		StopLoss:    entryPrice * stopLossMultiplier,
	}
	t.ledger = append(t.ledger, entry)
}

// UpdateOutcome records the realized outcome against the first ledger entry
// with a matching agent ID, recomputing pnl and the accuracy score in place.
// An unknown ID is a warning, not an error.
func (t *PerformanceTracker) UpdateOutcome(agentID string, actualOutcome float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.ledger {
		if t.ledger[i].AgentID != agentID {
			continue
		}
		entry := &t.ledger[i]
		entry.ActualOutcome = actualOutcome
		entry.PnL = (actualOutcome - entry.EntryPrice) / entry.EntryPrice * 100
		if entry.PnL > 0 {
			entry.AccuracyScore = 1
		} else {
			entry.AccuracyScore = 0
		}
		return
	}

	t.log.Warn("No prediction found for agent", logger.StringField("agent_id", agentID))
}

// Leaderboard returns a snapshot of the full ledger.
func (t *PerformanceTracker) Leaderboard() []dto.PredictionLog {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make([]dto.PredictionLog, len(t.ledger))
	copy(snapshot, t.ledger)
	return snapshot
}

// TotalPnL sums pnl across the entire ledger lifetime, not a single run.
func (t *PerformanceTracker) TotalPnL() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total float64
	for _, entry := range t.ledger {
		total += entry.PnL
	}
	return total
}
