package models

import (
	"time"

	"gorm.io/datatypes"
)

type AlertType string

const (
	AlertEmergency AlertType = "emergency"
	AlertUrgent    AlertType = "urgent"
	AlertSupport   AlertType = "support"
)

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertCancelled    AlertStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed
func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertCancelled
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type EmergencyAlert struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	StudentID       uint        `json:"student_id" gorm:"not null;index"`
	AlertType       AlertType   `json:"alert_type" gorm:"not null;size:16"`
	Status          AlertStatus `json:"status" gorm:"not null;size:16;default:active;index"`
	Message         string      `json:"message" gorm:"type:text"`
	RiskLevel       *RiskLevel  `json:"risk_level,omitempty" gorm:"size:16"`
	EscalatedFromID *uint       `json:"escalated_from_id,omitempty" gorm:"index"`

	AcknowledgedBy  *uint      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedBy      *uint      `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EmergencyAlert) TableName() string {
	return "emergency_alerts"
}

// RiskAnswer is a single answer of the embedded suicide-risk screening
type RiskAnswer string

const (
	RiskAnswerYes       RiskAnswer = "yes"
	RiskAnswerSometimes RiskAnswer = "sometimes"
	RiskAnswerUnsure    RiskAnswer = "unsure"
	RiskAnswerNo        RiskAnswer = "no"
)

type RiskQuestion struct {
	Question string     `json:"question"`
	Answer   RiskAnswer `json:"answer"`
}

type SuicideRiskScreening struct {
	ID                      uint           `json:"id" gorm:"primaryKey"`
	StudentID               uint           `json:"student_id" gorm:"not null;index"`
	EmergencyAlertID        uint           `json:"emergency_alert_id" gorm:"not null;index"`
	Questions               datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	RiskScore               int            `json:"risk_score" gorm:"not null"`
	RiskLevel               RiskLevel      `json:"risk_level" gorm:"not null;size:16"`
	ImmediateActionRequired bool           `json:"immediate_action_required" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (SuicideRiskScreening) TableName() string {
	return "suicide_risk_screenings"
}
