package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ScreenerFilters struct {
	StudentID    *uint                  `json:"student_id"`
	ScreenerType *models.ScreenerType   `json:"screener_type"`
	Status       *models.ScreenerStatus `json:"status"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

type AlertFilters struct {
	StudentID *uint               `json:"student_id"`
	Status    *models.AlertStatus `json:"status"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

type NotificationFilters struct {
	RecipientID uint `json:"recipient_id"`
	UnreadOnly  bool `json:"unread_only"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
}

// AlertTransition describes a conditional status change of an alert
type AlertTransition struct {
	From    []models.AlertStatus
	To      models.AlertStatus
	ActorID uint
	At      time.Time
	Notes   *string
}

// ===== SCREENERS =====

type ScreenerRepository interface {
	Create(ctx context.Context, instance *models.ScreenerInstance) error
	// GetByID loads the instance with its responses and score
	GetByID(ctx context.Context, id uint) (*models.ScreenerInstance, error)
	List(ctx context.Context, filters ScreenerFilters) ([]*models.ScreenerInstance, int64, error)
	LatestCompleted(ctx context.Context, studentID uint, screenerType models.ScreenerType) (*models.ScreenerInstance, error)

	ReplaceResponses(ctx context.Context, instanceID uint, responses []models.ScreenerResponse) error
	// MarkCompleted moves an assigned instance to completed; false if it was not assigned
	MarkCompleted(ctx context.Context, instanceID uint, at time.Time) (bool, error)
	CreateScore(ctx context.Context, score *models.ScreenerScore) error
}

// ===== ALERTS =====

type AlertRepository interface {
	Create(ctx context.Context, alert *models.EmergencyAlert) error
	GetByID(ctx context.Context, id uint) (*models.EmergencyAlert, error)
	List(ctx context.Context, filters AlertFilters) ([]*models.EmergencyAlert, int64, error)
	// Transition applies the change only if the current status is one of t.From
	Transition(ctx context.Context, id uint, t AlertTransition) (bool, error)
	CreateRiskScreening(ctx context.Context, screening *models.SuicideRiskScreening) error
}

// ===== NOTIFICATIONS & AUDIT =====

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.StaffNotification) error
	List(ctx context.Context, filters NotificationFilters) ([]*models.StaffNotification, int64, error)
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (bool, error)
}

type AuditRepository interface {
	Record(ctx context.Context, event *models.AuditEvent) error
}
