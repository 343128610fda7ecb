package dto

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Prompt    string `json:"prompt"`
	Mode      string `json:"mode"`
	Timeframe string `json:"timeframe"`
}

// PredictResponse is the fast/deep response contract.
type PredictResponse struct {
	Success          bool   `json:"success"`
	PredictionResult string `json:"prediction_result"`
}

// ConsensusProjection is the externally surfaced subset of ConsensusResult.
type ConsensusProjection struct {
	FinalPrediction string     `json:"final_prediction"`
	ConfidenceLevel FlexNumber `json:"confidence_level"`
}

// CouncilResponse is the council response contract. Only two consensus
// fields are surfaced; the full bundle stays internal.
type CouncilResponse struct {
	Success    bool                `json:"success"`
	Mode       string              `json:"mode"`
	Consensus  ConsensusProjection `json:"consensus"`
	Discussion []DiscussionEntry   `json:"discussion"`
}

// UpdateOutcomeRequest records a realized outcome against a ledger entry.
type UpdateOutcomeRequest struct {
	AgentID       string  `json:"agent_id"`
	ActualOutcome float64 `json:"actual_outcome"`
}
