package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// rawExpertAnalysis accepts whatever shapes the model produced; the typed
// record is built by coercion below.
type rawExpertAnalysis struct {
	Prediction interface{}   `json:"prediction"`
	Confidence interface{}   `json:"confidence"`
	Factors    []interface{} `json:"factors"`
	Risks      []interface{} `json:"risks"`
}

// ParseExpertAnalysis converts a persona's free-text completion into a
// structured ExpertAnalysis. It never fails: any unparseable input yields
// the canonical failure record, so a single malformed response cannot
// abort a council run.
func ParseExpertAnalysis(log *logger.Logger, rawText string) dto.ExpertAnalysis {
	analysis, err := tryParseExpertAnalysis(rawText)
	if err != nil {
		log.Error("Response parsing error", logger.ErrorField(err))
		return dto.ExpertAnalysis{
			Prediction: "Error parsing response",
			Confidence: 0,
			Factors:    []string{"Parsing error"},
			Risks:      []string{"Parsing error"},
		}
	}
	return analysis
}

func tryParseExpertAnalysis(rawText string) (dto.ExpertAnalysis, error) {
	cleanText := strings.ReplaceAll(rawText, "```json", "")
	cleanText = strings.ReplaceAll(cleanText, "```", "")
	cleanText = strings.ReplaceAll(cleanText, "\n", " ")
	cleanText = strings.TrimSpace(cleanText)

	startIdx := strings.Index(cleanText, "{")
	endIdx := strings.LastIndex(cleanText, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return dto.ExpertAnalysis{}, fmt.Errorf("no valid JSON object found")
	}
	candidate := cleanText[startIdx : endIdx+1]

	var raw rawExpertAnalysis
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		// Second chance: models routinely emit single quotes, trailing
		// commas, or unquoted keys.
		repaired, repairErr := jsonrepair.RepairJSON(candidate)
		if repairErr != nil {
			return dto.ExpertAnalysis{}, fmt.Errorf("failed to decode expert response: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return dto.ExpertAnalysis{}, fmt.Errorf("failed to decode repaired expert response: %w", err)
		}
	}

	return dto.ExpertAnalysis{
		Prediction: strings.TrimSpace(stringify(raw.Prediction)),
		Confidence: coerceConfidence(raw.Confidence),
		Factors:    stringifyList(raw.Factors, 3),
		Risks:      stringifyList(raw.Risks, 3),
	}, nil
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// coerceConfidence applies a base-10 parse to the stringified value,
// truncating fractional confidences.
func coerceConfidence(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(parsed)
		}
	}
	return 0
}

// stringifyList keeps at most max elements, order preserved.
func stringifyList(items []interface{}, max int) []string {
	out := make([]string, 0, max)
	for _, item := range items {
		if len(out) >= max {
			break
		}
		out = append(out, stringify(item))
	}
	return out
}
