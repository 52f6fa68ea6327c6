package models

import (
	"time"

	"gorm.io/datatypes"
)

type ScreenerType string

const (
	ScreenerPHQ9 ScreenerType = "phq9"
	ScreenerGAD7 ScreenerType = "gad7"
)

// QuestionCount returns the number of items of the instrument, or 0 for unknown types
func (t ScreenerType) QuestionCount() int {
	switch t {
	case ScreenerPHQ9:
		return 9
	case ScreenerGAD7:
		return 7
	default:
		return 0
	}
}

func (t ScreenerType) Valid() bool {
	return t.QuestionCount() > 0
}

type ScreenerStatus string

const (
	ScreenerAssigned  ScreenerStatus = "assigned"
	ScreenerCompleted ScreenerStatus = "completed"
)

type TriggerSource string

const (
	TriggerStaffAssigned TriggerSource = "staff_assigned"
	TriggerSelfStarted   TriggerSource = "self_started"
)

type SeverityBand string

const (
	SeverityMinimal          SeverityBand = "minimal"
	SeverityMild             SeverityBand = "mild"
	SeverityModerate         SeverityBand = "moderate"
	SeverityModeratelySevere SeverityBand = "moderately_severe"
	SeveritySevere           SeverityBand = "severe"
)

// Answer values are bounded to the 0..3 Likert scale of both instruments
const (
	MinAnswerValue = 0
	MaxAnswerValue = 3
)

type ScreenerInstance struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	StudentID     uint           `json:"student_id" gorm:"not null;index:idx_screener_student_type"`
	ScreenerType  ScreenerType   `json:"screener_type" gorm:"not null;size:16;index:idx_screener_student_type"`
	Status        ScreenerStatus `json:"status" gorm:"not null;size:16;default:assigned;index"`
	TriggerSource TriggerSource  `json:"trigger_source" gorm:"not null;size:32"`
	AssignedBy    *uint          `json:"assigned_by"`
	CompletedAt   *time.Time     `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Responses []ScreenerResponse `json:"responses,omitempty" gorm:"foreignKey:InstanceID"`
	Score     *ScreenerScore     `json:"score,omitempty" gorm:"foreignKey:InstanceID"`
}

func (ScreenerInstance) TableName() string {
	return "screener_instances"
}

type ScreenerResponse struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	InstanceID    uint `json:"instance_id" gorm:"not null;uniqueIndex:idx_response_instance_question"`
	QuestionIndex int  `json:"question_index" gorm:"not null;uniqueIndex:idx_response_instance_question"`
	AnswerValue   int  `json:"answer_value" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (ScreenerResponse) TableName() string {
	return "screener_responses"
}

type ScreenerScore struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	InstanceID   uint           `json:"instance_id" gorm:"uniqueIndex;not null"`
	TotalScore   int            `json:"total_score" gorm:"not null"`
	SeverityBand SeverityBand   `json:"severity_band" gorm:"not null;size:32"`
	Positive     bool           `json:"positive" gorm:"not null;default:false"`
	Details      datatypes.JSON `json:"details" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (ScreenerScore) TableName() string {
	return "screener_scores"
}
