package dto

import (
	"encoding/json"
	"strconv"
	"time"
)

// ExpertPersona describes one analyst seat on the council. The set of
// personas is fixed for the process lifetime.
type ExpertPersona struct {
	Role  string `json:"role"`
	Bias  string `json:"bias"`
	Style string `json:"style"`
}

// ExpertAnalysis is the structured record recovered from a single persona
// completion. All fields carry safe defaults on parse failure.
type ExpertAnalysis struct {
	Prediction string   `json:"prediction"`
	Confidence int      `json:"confidence"`
	Factors    []string `json:"factors"`
	Risks      []string `json:"risks"`
}

// DiscussionEntry pairs a persona with its analysis. Entries keep the
// persona invocation order, which is the display order downstream.
type DiscussionEntry struct {
	Expert   string         `json:"expert"`
	Analysis ExpertAnalysis `json:"analysis"`
}

// FlexNumber is a numeric field that serializes as "N/A" when the moderator
// output did not yield a usable number.
type FlexNumber struct {
	Value float64
	Valid bool
}

// Number returns a valid FlexNumber.
func Number(v float64) FlexNumber {
	return FlexNumber{Value: v, Valid: true}
}

// MarshalJSON renders the value, or "N/A" when unset.
func (f FlexNumber) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return json.Marshal("N/A")
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts a JSON number, a numeric string, or "N/A".
func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = n
		f.Valid = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := strconv.ParseFloat(s, 64); err == nil {
		f.Value = parsed
		f.Valid = true
	}
	return nil
}

// ConsensusResult is the moderator's synthesized verdict over the full
// discussion.
type ConsensusResult struct {
	FinalPrediction string     `json:"final_prediction"`
	ConfidenceLevel FlexNumber `json:"confidence_level"`
	ProfitStrategy  string     `json:"profit_strategy"`
	RiskAssessment  string     `json:"risk_assessment"`
	SentimentScore  FlexNumber `json:"sentiment_score"`
}

// FallbackConsensus builds the degenerate consensus used when the moderator
// output is not valid JSON: the raw text becomes the prediction and the
// numeric fields render as "N/A".
func FallbackConsensus(rawText string) ConsensusResult {
	return ConsensusResult{
		FinalPrediction: rawText,
		ProfitStrategy:  "N/A",
		RiskAssessment:  "N/A",
	}
}

// PredictionLog is one ledger entry per persona per council run.
type PredictionLog struct {
	Timestamp     time.Time `json:"timestamp"`
	AgentID       string    `json:"agent_id"`
	AgentRole     string    `json:"agent_role"`
	Prediction    string    `json:"prediction"`
	Confidence    int       `json:"confidence"`
	Timeframe     string    `json:"timeframe"`
	EntryPrice    float64   `json:"entry_price"`
	TargetPrice   float64   `json:"target_price"`
	StopLoss      float64   `json:"stop_loss"`
	ActualOutcome float64   `json:"actual_outcome"`
	PnL           float64   `json:"pnl"`
	AccuracyScore int       `json:"accuracy_score"`
}

// PerformanceMetrics is the ledger snapshot attached to a council result.
type PerformanceMetrics struct {
	Leaderboard     []PredictionLog `json:"leaderboard"`
	TotalCouncilPnL float64         `json:"total_council_pnl"`
}

// CouncilResult is the full bundle produced by one council run.
type CouncilResult struct {
	RunID              string             `json:"run_id"`
	Discussion         []DiscussionEntry  `json:"discussion"`
	Consensus          ConsensusResult    `json:"consensus"`
	Mode               string             `json:"mode"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// CompletionRequest is a single language-model call.
type CompletionRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}
