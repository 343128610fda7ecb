package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"golang-market-oracle/internal/predictor/dto"
)

// expertFocus restricts each persona to its analytical lens. The set is
// closed and must cover every configured persona.
var expertFocus = map[string]string{
	"Technical Analyst": "ONLY analyze price patterns, technical indicators, and market volume data",
	"Sentiment Analyst": "ONLY analyze social media trends, news sentiment, and public opinion",
	"Macro Economist":   "ONLY analyze market fundamentals, economic indicators, and industry trends",
	"Risk Manager":      "ONLY analyze risk metrics, position sizing, and risk/reward ratios",
}

// ValidatePersonas checks that each persona maps to a known focus area.
// An unknown role is a configuration error and should be fatal at startup.
func ValidatePersonas(personas []dto.ExpertPersona) error {
	for _, p := range personas {
		if _, ok := expertFocus[p.Role]; !ok {
			return fmt.Errorf("no focus area configured for persona role %q", p.Role)
		}
	}
	return nil
}

// BuildExpertPrompt produces the role-scoped prompt for one council persona.
// The response schema matches dto.ExpertAnalysis exactly.
func BuildExpertPrompt(persona dto.ExpertPersona, enrichedContext string) string {
	return fmt.Sprintf(`You are a %s with a %s approach and %s trading style.
%s

Return ONLY a valid JSON object with NO additional text or formatting:
{
  "prediction": "clear win/loss prediction",
  "confidence": number between 0-100,
  "factors": ["factor1", "factor2", "factor3"],
  "risks": ["risk1", "risk2", "risk3"]
}

Scenario: %s`, persona.Role, persona.Bias, persona.Style, expertFocus[persona.Role], enrichedContext)
}

// BuildModeratorPrompt serializes the discussion and asks for a strict JSON
// consensus object with exactly the five ConsensusResult fields.
func BuildModeratorPrompt(discussion []dto.DiscussionEntry) string {
	serialized, _ := json.MarshalIndent(discussion, "", "  ")

	return fmt.Sprintf(`As the council moderator, analyze these expert opinions and provide a final consensus.
Return ONLY a JSON object with no markdown formatting or additional text:

{
  "final_prediction": "clear prediction",
  "confidence_level": 75,
  "profit_strategy": "detailed strategy",
  "risk_assessment": "key risks",
  "sentiment_score": 75
}

Expert Opinions:
%s`, string(serialized))
}

// BuildEnrichedContext combines the user prompt with retrieved historical
// passages and the live market snapshot.
func BuildEnrichedContext(prompt, historicalContext, marketContext string) string {
	if historicalContext == "" {
		historicalContext = "No historical context available"
	}
	if marketContext == "" {
		marketContext = "No market data available"
	}
	return fmt.Sprintf(`%s

HISTORICAL CONTEXT:
%s

LIVE MARKET DATA:
%s`, prompt, historicalContext, marketContext)
}

// BuildBetRecommendationPrompt produces the single-shot fast/deep prompt
// demanding a structured bet recommendation with ROI math.
func BuildBetRecommendationPrompt(prompt, historicalContext, marketContext string, deep bool) string {
	historicalSection := ""
	if deep {
		historicalSection = fmt.Sprintf("HISTORICAL CONTEXT:\n%s\n\n", historicalContext)
	}
	if marketContext == "" {
		marketContext = "Unavailable"
	}

	return fmt.Sprintf(`ANALYZE ROI AND PROVIDE A SPECIFIC BET RECOMMENDATION:

Given the date and time is: %s

%sMARKET DATA:
%s

USER QUERY:
%s

CALCULATE POTENTIAL RETURNS:
1. If YES wins: (100 - Yes Price) / Yes Price = ROI%%
2. If NO wins: (100 - No Price) / No Price = ROI%%

RESPOND IN THIS FORMAT:
RECOMMENDED BET:
[Market Ticker] - [Market Title]
Team/Selection: [SPECIFIC TEAM/OUTCOME]
Position: [YES/NO]
Entry Price: $[Current Price or N/A if missing]
Potential ROI: [X]%%
Size: [SMALL/MEDIUM/LARGE]
Confidence: [X]%%

WHY THIS BET:
- ROI calculation or N/A if not available
- Market inefficiency
- Supporting data

RISK/REWARD:
- Risk
- Max Loss
- Max Gain
- Win Probability or N/A`, time.Now().UTC().Format(time.RFC3339), historicalSection, marketContext, prompt)
}
