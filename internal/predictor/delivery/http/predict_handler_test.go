package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/internal/predictor/service"
	"golang-market-oracle/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictionService struct {
	outcome *service.PredictionOutcome
	err     error
	calls   int
	lastReq *dto.PredictRequest
}

func (f *fakePredictionService) Predict(_ context.Context, req *dto.PredictRequest) (*service.PredictionOutcome, error) {
	f.calls++
	f.lastReq = req
	return f.outcome, f.err
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func performPredict(t *testing.T, svc service.PredictionService, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler := NewPredictHandler(svc, newTestLogger(t))
	handler.RegisterRoutes(e.Group("/api/v1/predict"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredict_MissingPrompt(t *testing.T) {
	svc := &fakePredictionService{}

	rec := performPredict(t, svc, `{"mode": "fast"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please provide a prompt in the request body")
	assert.Zero(t, svc.calls, "the service must not be invoked without a prompt")
}

func TestPredict_FastModeResponse(t *testing.T) {
	svc := &fakePredictionService{outcome: &service.PredictionOutcome{
		Mode: service.ModeFast,
		Text: "RECOMMENDED BET: YES",
	}}

	rec := performPredict(t, svc, `{"prompt": "Will BTC rise?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "RECOMMENDED BET: YES", resp.PredictionResult)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "Will BTC rise?", svc.lastReq.Prompt)
}

func TestPredict_InvalidModeIsBadRequest(t *testing.T) {
	svc := &fakePredictionService{err: service.ErrInvalidMode}

	rec := performPredict(t, svc, `{"prompt": "query", "mode": "turbo"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid mode")
}

func TestPredict_InternalErrorIsOpaque(t *testing.T) {
	svc := &fakePredictionService{err: assert.AnError}

	rec := performPredict(t, svc, `{"prompt": "query"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestPredict_CouncilResponseProjection(t *testing.T) {
	svc := &fakePredictionService{outcome: &service.PredictionOutcome{
		Mode: service.ModeCouncil,
		Council: &dto.CouncilResult{
			RunID: "run-1",
			Mode:  "council",
			Discussion: []dto.DiscussionEntry{
				{Expert: "Technical Analyst", Analysis: dto.ExpertAnalysis{Prediction: "YES", Confidence: 70}},
			},
			Consensus: dto.ConsensusResult{
				FinalPrediction: "YES wins",
				ConfidenceLevel: dto.Number(80),
				ProfitStrategy:  "buy YES",
			},
		},
	}}

	rec := performPredict(t, svc, `{"prompt": "query", "mode": "council"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "council", resp["mode"])

	consensus, ok := resp["consensus"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "YES wins", consensus["final_prediction"])
	assert.Equal(t, float64(80), consensus["confidence_level"])
	// Only the two public consensus fields are surfaced.
	assert.NotContains(t, consensus, "profit_strategy")

	discussion, ok := resp["discussion"].([]interface{})
	require.True(t, ok)
	assert.Len(t, discussion, 1)
}

func TestPredict_CouncilEmptyConsensusGetsPlaceholder(t *testing.T) {
	svc := &fakePredictionService{outcome: &service.PredictionOutcome{
		Mode:    service.ModeCouncil,
		Council: &dto.CouncilResult{Mode: "council"},
	}}

	rec := performPredict(t, svc, `{"prompt": "query", "mode": "council"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	consensus := resp["consensus"].(map[string]interface{})
	assert.Equal(t, "Consensus building...", consensus["final_prediction"])
	assert.Equal(t, "N/A", consensus["confidence_level"])

	discussion, ok := resp["discussion"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, discussion, "discussion must be an empty array, not null")
}
