package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type LoginRequest = validator.LoginRequest
type CreateScreenerRequest = validator.ScreenerCreateRequest
type SubmitScreenerRequest = validator.ScreenerSubmitRequest
type ScreenerAnswer = validator.ScreenerAnswer
type CreateAlertRequest = validator.AlertCreateRequest
type ResolveAlertRequest = validator.AlertResolveRequest

// Actor is the authenticated caller of a tenant-bound operation
type Actor struct {
	UserID uint
	Role   models.UserRole
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type LoginUser struct {
	ID         uint            `json:"id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Role       models.UserRole `json:"role"`
	TenantName *string         `json:"tenantName,omitempty"`
	TenantID   *int            `json:"tenantId,omitempty"`
}

type ScreenerCatalogEntry struct {
	ScreenerType  models.ScreenerType `json:"screenerType"`
	Name          string              `json:"name"`
	QuestionCount int                 `json:"questionCount"`
	Questions     []string            `json:"questions"`
	AnswerScale   []int               `json:"answerScale"`
	AnswerLabels  []string            `json:"answerLabels"`
}

type ScreenerListRequest struct {
	StudentID    *uint
	ScreenerType *models.ScreenerType
	Status       *models.ScreenerStatus
	Limit        int
	Offset       int
}

type ScreenerListResponse struct {
	Screeners []*models.ScreenerInstance `json:"screeners"`
	Total     int64                      `json:"total"`
}

type ScreenerResultResponse struct {
	Instance *models.ScreenerInstance `json:"instance"`
	Score    *models.ScreenerScore    `json:"score"`
}

type AlertListRequest struct {
	StudentID *uint
	Status    *models.AlertStatus
	Limit     int
	Offset    int
}

type AlertListResponse struct {
	Alerts []*models.EmergencyAlert `json:"alerts"`
	Total  int64                    `json:"total"`
}

type AlertResponse struct {
	Alert          *models.EmergencyAlert `json:"alert"`
	Escalation     *models.EmergencyAlert `json:"escalation,omitempty"`
	RiskAssessment *RiskAssessment        `json:"riskAssessment,omitempty"`
	NotifiedStaff  int                    `json:"notifiedStaff"`
}

type NotificationListResponse struct {
	Notifications []*models.StaffNotification `json:"notifications"`
	Total         int64                       `json:"total"`
}

// ===== SERVICE INTERFACES =====

type IdentityService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)
}

type ScreenerService interface {
	Catalog() []ScreenerCatalogEntry
	Create(ctx context.Context, req *CreateScreenerRequest, actor Actor) (*models.ScreenerInstance, error)
	Submit(ctx context.Context, instanceID uint, req *SubmitScreenerRequest, actor Actor) (*ScreenerResultResponse, error)
	Get(ctx context.Context, instanceID uint, actor Actor) (*models.ScreenerInstance, error)
	List(ctx context.Context, req ScreenerListRequest, actor Actor) (*ScreenerListResponse, error)
	ExportResults(ctx context.Context, studentID uint, actor Actor, w io.Writer) error
}

type AlertService interface {
	Create(ctx context.Context, req *CreateAlertRequest, actor Actor) (*AlertResponse, error)
	Acknowledge(ctx context.Context, alertID uint, actor Actor) (*models.EmergencyAlert, error)
	Resolve(ctx context.Context, alertID uint, notes string, actor Actor) (*models.EmergencyAlert, error)
	Cancel(ctx context.Context, alertID uint, actor Actor) (*models.EmergencyAlert, error)
	List(ctx context.Context, req AlertListRequest, actor Actor) (*AlertListResponse, error)
}

type NotificationService interface {
	List(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) (*NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID uint, actor Actor) error
}

type ServiceManager interface {
	Identity() IdentityService
	Screener() ScreenerService
	Alert() AlertService
	Notification() NotificationService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
