package services

import (
	"strings"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

const maxRiskScore = 10

// RiskAssessment is the stratified result of an embedded suicide-risk screening
type RiskAssessment struct {
	Score                   int              `json:"riskScore"`
	Level                   models.RiskLevel `json:"riskLevel"`
	ImmediateActionRequired bool             `json:"immediateActionRequired"`
}

func riskAnswerWeight(a models.RiskAnswer) int {
	switch models.RiskAnswer(strings.ToLower(string(a))) {
	case models.RiskAnswerYes:
		return 2
	case models.RiskAnswerSometimes, models.RiskAnswerUnsure:
		return 1
	default:
		return 0
	}
}

// AssessRisk scores answers (high = 2, moderate = 1), caps the sum at 10 and
// stratifies it: critical >= 8, high >= 5, moderate >= 3, otherwise low.
func AssessRisk(answers []models.RiskAnswer) RiskAssessment {
	score := 0
	for _, a := range answers {
		score += riskAnswerWeight(a)
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}

	var level models.RiskLevel
	switch {
	case score >= 8:
		level = models.RiskCritical
	case score >= 5:
		level = models.RiskHigh
	case score >= 3:
		level = models.RiskModerate
	default:
		level = models.RiskLow
	}

	return RiskAssessment{
		Score:                   score,
		Level:                   level,
		ImmediateActionRequired: level == models.RiskCritical || level == models.RiskHigh,
	}
}
