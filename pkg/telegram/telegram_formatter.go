package telegram

import (
	"fmt"
	"strings"

	"golang-market-oracle/internal/predictor/dto"
)

// FormatCouncilResult formats a council run into a Markdown message for
// Telegram, truncated to the Telegram message length limit.
func FormatCouncilResult(result *dto.CouncilResult) string {
	const maxLen = 4090

	var sb strings.Builder
	sb.WriteString("🏛 *Council Verdict*\n\n")
	sb.WriteString(fmt.Sprintf("🔮 *Prediction:* %s\n", result.Consensus.FinalPrediction))

	if result.Consensus.ConfidenceLevel.Valid {
		sb.WriteString(fmt.Sprintf("📊 *Confidence:* %.0f%%\n", result.Consensus.ConfidenceLevel.Value))
	} else {
		sb.WriteString("📊 *Confidence:* N/A\n")
	}
	if result.Consensus.ProfitStrategy != "" && result.Consensus.ProfitStrategy != "N/A" {
		sb.WriteString(fmt.Sprintf("💰 *Strategy:* %s\n", result.Consensus.ProfitStrategy))
	}
	if result.Consensus.RiskAssessment != "" && result.Consensus.RiskAssessment != "N/A" {
		sb.WriteString(fmt.Sprintf("⚠️ *Risks:* %s\n", result.Consensus.RiskAssessment))
	}

	sb.WriteString("\n*Expert Seats*\n")
	for _, entry := range result.Discussion {
		sb.WriteString(fmt.Sprintf("• _%s_ (%d%%): %s\n", entry.Expert, entry.Analysis.Confidence, entry.Analysis.Prediction))
	}

	sb.WriteString(fmt.Sprintf("\n📈 *Total council PnL:* %.2f%%\n", result.PerformanceMetrics.TotalCouncilPnL))

	message := sb.String()
	if len(message) > maxLen {
		message = message[:maxLen]
	}
	return message
}
