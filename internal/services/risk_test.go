package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

func TestAssessRisk(t *testing.T) {
	yes, sometimes, no := models.RiskAnswerYes, models.RiskAnswerSometimes, models.RiskAnswerNo

	tests := []struct {
		name       string
		answers    []models.RiskAnswer
		wantScore  int
		wantLevel  models.RiskLevel
		wantUrgent bool
	}{
		{name: "no answers", answers: nil, wantScore: 0, wantLevel: models.RiskLow},
		{name: "all no", answers: []models.RiskAnswer{no, no, no, no}, wantScore: 0, wantLevel: models.RiskLow},
		{name: "moderate", answers: []models.RiskAnswer{yes, sometimes, no, no}, wantScore: 3, wantLevel: models.RiskModerate},
		{name: "high", answers: []models.RiskAnswer{yes, yes, sometimes, no}, wantScore: 5, wantLevel: models.RiskHigh, wantUrgent: true},
		{name: "four yes is critical", answers: []models.RiskAnswer{yes, yes, yes, yes}, wantScore: 8, wantLevel: models.RiskCritical, wantUrgent: true},
		{name: "capped at ten", answers: []models.RiskAnswer{yes, yes, yes, yes, yes, yes, yes}, wantScore: 10, wantLevel: models.RiskCritical, wantUrgent: true},
		{name: "case insensitive and unsure", answers: []models.RiskAnswer{"YES", "Unsure"}, wantScore: 3, wantLevel: models.RiskModerate},
		{name: "unknown answers score zero", answers: []models.RiskAnswer{"maybe", "n/a"}, wantScore: 0, wantLevel: models.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessRisk(tt.answers)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantUrgent, got.ImmediateActionRequired)
		})
	}
}
