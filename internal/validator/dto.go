package validator

import "github.com/SAP-F-2025/wellbeing-service/internal/models"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=256"`
}

type ScreenerCreateRequest struct {
	ScreenerType      models.ScreenerType `json:"screenerType" validate:"required,screener_type"`
	StudentID         *uint               `json:"studentId" validate:"omitempty,min=1"`
	OverrideFrequency bool                `json:"overrideFrequency"`
}

type ScreenerAnswer struct {
	QuestionIndex int `json:"questionIndex" validate:"min=0"`
	AnswerValue   int `json:"answerValue"`
}

type ScreenerSubmitRequest struct {
	Responses []ScreenerAnswer `json:"responses" validate:"max=9,dive"`
}

type RiskQuestionRequest struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required,risk_answer"`
}

type AlertCreateRequest struct {
	AlertType            models.AlertType      `json:"alertType" validate:"required,alert_type"`
	Message              string                `json:"message" validate:"max=2000"`
	SuicideRiskScreening []RiskQuestionRequest `json:"suicideRiskScreening" validate:"omitempty,max=20,dive"`
}

type AlertResolveRequest struct {
	ResolutionNotes string `json:"resolutionNotes" validate:"max=4000"`
}
