package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestScoreScreener(t *testing.T) {
	tests := []struct {
		name         string
		screenerType models.ScreenerType
		answers      []int
		wantTotal    int
		wantBand     models.SeverityBand
		wantPositive bool
		wantSelfHarm bool
	}{
		{name: "phq9 all zero", screenerType: models.ScreenerPHQ9, answers: repeat(0, 9), wantTotal: 0, wantBand: models.SeverityMinimal},
		{name: "phq9 mild", screenerType: models.ScreenerPHQ9, answers: []int{1, 1, 1, 1, 1, 0, 0, 0, 0}, wantTotal: 5, wantBand: models.SeverityMild},
		{name: "phq9 moderate boundary", screenerType: models.ScreenerPHQ9, answers: []int{2, 2, 2, 2, 2, 0, 0, 0, 0}, wantTotal: 10, wantBand: models.SeverityModerate, wantPositive: true},
		{name: "phq9 moderately severe", screenerType: models.ScreenerPHQ9, answers: []int{3, 3, 3, 3, 3, 0, 0, 0, 0}, wantTotal: 15, wantBand: models.SeverityModeratelySevere, wantPositive: true},
		{name: "phq9 severe max", screenerType: models.ScreenerPHQ9, answers: repeat(3, 9), wantTotal: 27, wantBand: models.SeveritySevere, wantPositive: true, wantSelfHarm: true},
		{name: "phq9 self-harm item alone", screenerType: models.ScreenerPHQ9, answers: []int{0, 0, 0, 0, 0, 0, 0, 0, 1}, wantTotal: 1, wantBand: models.SeverityMinimal, wantPositive: true, wantSelfHarm: true},
		{name: "phq9 missing answers count as zero", screenerType: models.ScreenerPHQ9, answers: []int{3, 3}, wantTotal: 6, wantBand: models.SeverityMild},
		{name: "phq9 out of range values are clamped", screenerType: models.ScreenerPHQ9, answers: []int{9, -4, 0, 0, 0, 0, 0, 0, 0}, wantTotal: 3, wantBand: models.SeverityMinimal},
		{name: "gad7 minimal", screenerType: models.ScreenerGAD7, answers: repeat(0, 7), wantTotal: 0, wantBand: models.SeverityMinimal},
		{name: "gad7 moderate", screenerType: models.ScreenerGAD7, answers: []int{2, 2, 2, 2, 2, 0, 0}, wantTotal: 10, wantBand: models.SeverityModerate, wantPositive: true},
		{name: "gad7 severe", screenerType: models.ScreenerGAD7, answers: repeat(3, 7), wantTotal: 21, wantBand: models.SeveritySevere, wantPositive: true},
		{name: "gad7 just below threshold", screenerType: models.ScreenerGAD7, answers: []int{3, 3, 3, 0, 0, 0, 0}, wantTotal: 9, wantBand: models.SeverityMild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScoreScreener(tt.screenerType, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantBand, result.Band)
			assert.Equal(t, tt.wantPositive, result.Positive)
			assert.Equal(t, tt.wantSelfHarm, result.Details.SelfHarmFlag)
			assert.Len(t, result.Details.Answers, tt.screenerType.QuestionCount())
		})
	}
}

func TestScoreScreener_Deterministic(t *testing.T) {
	answers := []int{1, 2, 3, 0, 1, 2, 3, 0, 0}
	first, err := ScoreScreener(models.ScreenerPHQ9, answers)
	require.NoError(t, err)
	second, err := ScoreScreener(models.ScreenerPHQ9, answers)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreScreener_UnknownType(t *testing.T) {
	_, err := ScoreScreener("bdi", []int{1})
	assert.Error(t, err)
}

func TestNormalizeResponses(t *testing.T) {
	t.Run("fills missing and clamps", func(t *testing.T) {
		answers, err := normalizeResponses(models.ScreenerGAD7, []ScreenerAnswer{
			{QuestionIndex: 6, AnswerValue: 7},
			{QuestionIndex: 0, AnswerValue: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 0, 0, 0, 0, 0, 3}, answers)
	})

	t.Run("rejects duplicate index", func(t *testing.T) {
		_, err := normalizeResponses(models.ScreenerGAD7, []ScreenerAnswer{
			{QuestionIndex: 1, AnswerValue: 1},
			{QuestionIndex: 1, AnswerValue: 2},
		})
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "questionIndex", verrs[0].Field)
	})

	t.Run("rejects out of range index", func(t *testing.T) {
		_, err := normalizeResponses(models.ScreenerGAD7, []ScreenerAnswer{{QuestionIndex: 7, AnswerValue: 1}})
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
	})

	t.Run("rejects too many answers", func(t *testing.T) {
		responses := make([]ScreenerAnswer, 8)
		for i := range responses {
			responses[i] = ScreenerAnswer{QuestionIndex: i}
		}
		_, err := normalizeResponses(models.ScreenerGAD7, responses)
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "responses", verrs[0].Field)
	})
}
