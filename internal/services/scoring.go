package services

import (
	"fmt"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

const (
	positiveThreshold = 10
	// phq9SelfHarmItem is the zero-based index of the thoughts-of-self-harm item
	phq9SelfHarmItem = 8
)

var answerScale = []int{0, 1, 2, 3}

var answerLabels = []string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

var phq9Questions = []string{
	"Little interest or pleasure in doing things",
	"Feeling down, depressed, or hopeless",
	"Trouble falling or staying asleep, or sleeping too much",
	"Feeling tired or having little energy",
	"Poor appetite or overeating",
	"Feeling bad about yourself, or that you are a failure or have let yourself or your family down",
	"Trouble concentrating on things, such as reading or watching television",
	"Moving or speaking so slowly that other people could have noticed, or being so fidgety or restless that you have been moving around a lot more than usual",
	"Thoughts that you would be better off dead, or of hurting yourself",
}

var gad7Questions = []string{
	"Feeling nervous, anxious, or on edge",
	"Not being able to stop or control worrying",
	"Worrying too much about different things",
	"Trouble relaxing",
	"Being so restless that it is hard to sit still",
	"Becoming easily annoyed or irritable",
	"Feeling afraid, as if something awful might happen",
}

// ScreenerCatalog lists the instruments students can be assigned
func ScreenerCatalog() []ScreenerCatalogEntry {
	return []ScreenerCatalogEntry{
		{
			ScreenerType:  models.ScreenerPHQ9,
			Name:          "Patient Health Questionnaire (PHQ-9)",
			QuestionCount: models.ScreenerPHQ9.QuestionCount(),
			Questions:     phq9Questions,
			AnswerScale:   answerScale,
			AnswerLabels:  answerLabels,
		},
		{
			ScreenerType:  models.ScreenerGAD7,
			Name:          "Generalized Anxiety Disorder (GAD-7)",
			QuestionCount: models.ScreenerGAD7.QuestionCount(),
			Questions:     gad7Questions,
			AnswerScale:   answerScale,
			AnswerLabels:  answerLabels,
		},
	}
}

// ScoreResult is the outcome of scoring one completed screener
type ScoreResult struct {
	Total    int                 `json:"total"`
	Band     models.SeverityBand `json:"severityBand"`
	Positive bool                `json:"positive"`
	Details  ScoreDetails        `json:"details"`
}

type ScoreDetails struct {
	Answers         []int    `json:"answers"`
	MaxScore        int      `json:"maxScore"`
	SelfHarmFlag    bool     `json:"selfHarmFlag,omitempty"`
	PositiveReasons []string `json:"positiveReasons,omitempty"`
}

func clampAnswer(v int) int {
	if v < models.MinAnswerValue {
		return models.MinAnswerValue
	}
	if v > models.MaxAnswerValue {
		return models.MaxAnswerValue
	}
	return v
}

// ScoreScreener is pure and deterministic. Answers beyond the instrument's
// length are ignored, missing answers count as 0 and values are clamped to 0..3.
func ScoreScreener(screenerType models.ScreenerType, answers []int) (*ScoreResult, error) {
	n := screenerType.QuestionCount()
	if n == 0 {
		return nil, fmt.Errorf("unknown screener type %q", screenerType)
	}

	normalized := make([]int, n)
	total := 0
	for i := 0; i < n && i < len(answers); i++ {
		normalized[i] = clampAnswer(answers[i])
		total += normalized[i]
	}

	result := &ScoreResult{
		Total: total,
		Details: ScoreDetails{
			Answers:  normalized,
			MaxScore: n * models.MaxAnswerValue,
		},
	}

	if total >= positiveThreshold {
		result.Positive = true
		result.Details.PositiveReasons = append(result.Details.PositiveReasons, "total_score")
	}

	switch screenerType {
	case models.ScreenerPHQ9:
		result.Band = phq9Band(total)
		if normalized[phq9SelfHarmItem] > 0 {
			result.Positive = true
			result.Details.SelfHarmFlag = true
			result.Details.PositiveReasons = append(result.Details.PositiveReasons, "self_harm_item")
		}
	case models.ScreenerGAD7:
		result.Band = gad7Band(total)
	}

	return result, nil
}

func phq9Band(total int) models.SeverityBand {
	switch {
	case total >= 20:
		return models.SeveritySevere
	case total >= 15:
		return models.SeverityModeratelySevere
	case total >= 10:
		return models.SeverityModerate
	case total >= 5:
		return models.SeverityMild
	default:
		return models.SeverityMinimal
	}
}

func gad7Band(total int) models.SeverityBand {
	switch {
	case total >= 15:
		return models.SeveritySevere
	case total >= 10:
		return models.SeverityModerate
	case total >= 5:
		return models.SeverityMild
	default:
		return models.SeverityMinimal
	}
}

// normalizeResponses turns submitted responses into one clamped answer per
// item. Duplicate or out-of-range indexes and oversized submissions are rejected.
func normalizeResponses(screenerType models.ScreenerType, responses []ScreenerAnswer) ([]int, error) {
	n := screenerType.QuestionCount()
	if len(responses) > n {
		return nil, newValidationError("responses", fmt.Sprintf("must contain at most %d answers", n), len(responses))
	}

	answers := make([]int, n)
	seen := make(map[int]bool, len(responses))
	var errs ValidationErrors
	for _, r := range responses {
		if r.QuestionIndex < 0 || r.QuestionIndex >= n {
			errs = append(errs, ValidationError{
				Field:   "questionIndex",
				Message: fmt.Sprintf("must be between 0 and %d", n-1),
				Value:   r.QuestionIndex,
				Rule:    "business_logic",
			})
			continue
		}
		if seen[r.QuestionIndex] {
			errs = append(errs, ValidationError{
				Field:   "questionIndex",
				Message: "answered more than once",
				Value:   r.QuestionIndex,
				Rule:    "business_logic",
			})
			continue
		}
		seen[r.QuestionIndex] = true
		answers[r.QuestionIndex] = clampAnswer(r.AnswerValue)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return answers, nil
}
