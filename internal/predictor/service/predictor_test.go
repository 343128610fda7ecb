package service

import (
	"context"
	"testing"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCouncil struct {
	result *dto.CouncilResult
	err    error

	prompt     string
	timeframe  string
	entryPrice float64
	maxTokens  int
	calls      int
}

func (f *fakeCouncil) RunCouncil(_ context.Context, prompt, timeframe string, currentPrice float64, maxTokens int) (*dto.CouncilResult, error) {
	f.calls++
	f.prompt = prompt
	f.timeframe = timeframe
	f.entryPrice = currentPrice
	f.maxTokens = maxTokens
	return f.result, f.err
}

type fakeRetriever struct {
	context string
	err     error
	calls   int
}

func (f *fakeRetriever) RetrieveContext(context.Context, string) (string, error) {
	f.calls++
	return f.context, f.err
}

func dispatcherTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OpenAI.FastModel = "fast-model"
	cfg.OpenAI.DeepModel = "deep-model"
	cfg.OpenAI.CouncilModel = "council-model"
	cfg.Council.MaxTokens = 500
	cfg.Council.DefaultEntryPrice = 100
	return cfg
}

func TestPredict_EmptyModeDefaultsToFast(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{"RECOMMENDED BET: YES on TEST"}}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, nil, &fakeCouncil{}, nil)

	outcome, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "Will BTC rise?"})
	require.NoError(t, err)

	assert.Equal(t, ModeFast, outcome.Mode)
	assert.Equal(t, "RECOMMENDED BET: YES on TEST", outcome.Text)
	assert.Nil(t, outcome.Council)

	require.Len(t, ai.calls, 1)
	call := ai.calls[0]
	assert.Equal(t, "fast-model", call.Model)
	assert.InDelta(t, 0.5, call.Temperature, 1e-9)
	assert.Equal(t, 500, call.MaxTokens)
	assert.Contains(t, call.Prompt, "Will BTC rise?")
	assert.NotContains(t, call.Prompt, "HISTORICAL CONTEXT:")
}

func TestPredict_DeepModeRetrievesContext(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{"deep answer"}}
	retriever := &fakeRetriever{context: "past elections resolved NO"}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, retriever, &fakeCouncil{}, nil)

	outcome, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: ModeDeep})
	require.NoError(t, err)

	assert.Equal(t, ModeDeep, outcome.Mode)
	assert.Equal(t, 1, retriever.calls)

	require.Len(t, ai.calls, 1)
	call := ai.calls[0]
	assert.Equal(t, "deep-model", call.Model)
	assert.Contains(t, call.Prompt, "HISTORICAL CONTEXT:")
	assert.Contains(t, call.Prompt, "past elections resolved NO")
}

func TestPredict_FastModeSkipsRetriever(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{"fast answer"}}
	retriever := &fakeRetriever{context: "should not be used"}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, retriever, &fakeCouncil{}, nil)

	_, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: ModeFast})
	require.NoError(t, err)

	assert.Zero(t, retriever.calls)
}

func TestPredict_DeepModeRetrieverFailureIsBestEffort(t *testing.T) {
	ai := &fakeAIRepo{responses: []string{"deep answer"}}
	retriever := &fakeRetriever{err: assert.AnError}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, retriever, &fakeCouncil{}, nil)

	outcome, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: ModeDeep})
	require.NoError(t, err)
	assert.Equal(t, "deep answer", outcome.Text)
}

func TestPredict_CouncilModeDelegates(t *testing.T) {
	council := &fakeCouncil{result: &dto.CouncilResult{RunID: "run-1", Mode: "council"}}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), &fakeAIRepo{}, &fakeSnapshot{}, nil, council, nil)

	outcome, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: ModeCouncil})
	require.NoError(t, err)

	assert.Equal(t, ModeCouncil, outcome.Mode)
	require.NotNil(t, outcome.Council)
	assert.Equal(t, "run-1", outcome.Council.RunID)

	assert.Equal(t, 1, council.calls)
	assert.Equal(t, "query", council.prompt)
	assert.Equal(t, "short", council.timeframe)
	assert.InDelta(t, 100.0, council.entryPrice, 1e-9)
	assert.Equal(t, 500, council.maxTokens)
}

func TestPredict_CouncilModeHonorsTimeframe(t *testing.T) {
	council := &fakeCouncil{result: &dto.CouncilResult{}}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), &fakeAIRepo{}, &fakeSnapshot{}, nil, council, nil)

	_, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: ModeCouncil, Timeframe: "long"})
	require.NoError(t, err)

	assert.Equal(t, "long", council.timeframe)
}

func TestPredict_UnknownModeRejected(t *testing.T) {
	ai := &fakeAIRepo{}
	council := &fakeCouncil{}
	svc := NewPredictionService(dispatcherTestConfig(), newTestLogger(t), ai, &fakeSnapshot{}, nil, council, nil)

	outcome, err := svc.Predict(context.Background(), &dto.PredictRequest{Prompt: "query", Mode: "turbo"})

	require.ErrorIs(t, err, ErrInvalidMode)
	assert.Nil(t, outcome)
	assert.Empty(t, ai.calls)
	assert.Zero(t, council.calls)
}
