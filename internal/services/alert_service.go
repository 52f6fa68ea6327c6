package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/realtime"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

const defaultFanoutLimit = 10

type alertService struct {
	repos       repositories.Provider
	notifier    *staffNotifier
	broadcaster realtime.Broadcaster
	publisher   events.EventPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	validator   *validator.Validator
	fanoutLimit int
	now         func() time.Time
}

func NewAlertService(
	repos repositories.Provider,
	broadcaster realtime.Broadcaster,
	publisher events.EventPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	v *validator.Validator,
	fanoutLimit int,
) AlertService {
	if fanoutLimit <= 0 {
		fanoutLimit = defaultFanoutLimit
	}
	return &alertService{
		repos:       repos,
		notifier:    &staffNotifier{logger: logger, metrics: m},
		broadcaster: broadcaster,
		publisher:   publisher,
		logger:      logger,
		metrics:     m,
		validator:   v,
		fanoutLimit: fanoutLimit,
		now:         time.Now,
	}
}

func (s *alertService) Create(ctx context.Context, req *CreateAlertRequest, actor Actor) (*AlertResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, NewPermissionError(actor.UserID, "emergency_alert", "create", "only students can raise alerts")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	repo, pool, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	alert := &models.EmergencyAlert{
		StudentID: actor.UserID,
		AlertType: req.AlertType,
		Status:    models.AlertActive,
		Message:   strings.TrimSpace(req.Message),
	}

	var assessment *RiskAssessment
	var questions []models.RiskQuestion
	if len(req.SuicideRiskScreening) > 0 {
		answers := make([]models.RiskAnswer, len(req.SuicideRiskScreening))
		questions = make([]models.RiskQuestion, len(req.SuicideRiskScreening))
		for i, q := range req.SuicideRiskScreening {
			answer := models.RiskAnswer(strings.ToLower(q.Answer))
			answers[i] = answer
			questions[i] = models.RiskQuestion{Question: q.Question, Answer: answer}
		}
		result := AssessRisk(answers)
		assessment = &result
		level := result.Level
		alert.RiskLevel = &level
	}

	if err := repo.Alert().Create(ctx, alert); err != nil {
		return nil, storeError("create alert", err)
	}

	response := &AlertResponse{Alert: alert, RiskAssessment: assessment}

	if assessment != nil {
		screening := &models.SuicideRiskScreening{
			StudentID:               actor.UserID,
			EmergencyAlertID:        alert.ID,
			Questions:               toJSON(questions),
			RiskScore:               assessment.Score,
			RiskLevel:               assessment.Level,
			ImmediateActionRequired: assessment.ImmediateActionRequired,
		}
		if err := repo.Alert().CreateRiskScreening(ctx, screening); err != nil {
			s.logger.Error("Failed to store risk screening", "alert_id", alert.ID, "error", err)
		}

		if assessment.Level == models.RiskCritical {
			response.Escalation = s.escalate(ctx, repo, alert)
		}
	}

	riskLabel := "none"
	if alert.RiskLevel != nil {
		riskLabel = string(*alert.RiskLevel)
	}
	s.metrics.AlertsCreated.WithLabelValues(string(alert.AlertType), riskLabel).Inc()
	s.logger.Warn("Emergency alert raised",
		"tenant", pool.Name,
		"alert_id", alert.ID,
		"student_id", alert.StudentID,
		"type", alert.AlertType,
		"risk_level", riskLabel,
		"escalated", response.Escalation != nil)

	auditDetails := map[string]interface{}{
		"alert_type": alert.AlertType,
		"risk_level": riskLabel,
	}
	if response.Escalation != nil {
		auditDetails["escalation_id"] = response.Escalation.ID
	}
	recordAudit(ctx, repo, s.logger, actor, "alert.created", models.RelatedEmergencyAlert, alert.ID, auditDetails)

	notified := s.notifier.notify(ctx, repo, alertNotice(alert), s.fanoutLimit)
	response.NotifiedStaff = len(notified)

	s.broadcastCreated(ctx, pool.Name, response)
	s.publishCreated(ctx, pool.Name, response)

	return response, nil
}

// escalate raises the follow-up emergency alert for a critical screening.
// A failure is logged and the original alert stands on its own.
func (s *alertService) escalate(ctx context.Context, repo repositories.Repository, original *models.EmergencyAlert) *models.EmergencyAlert {
	critical := models.RiskCritical
	originalID := original.ID
	escalation := &models.EmergencyAlert{
		StudentID:       original.StudentID,
		AlertType:       models.AlertEmergency,
		Status:          models.AlertActive,
		Message:         "Automatic escalation: critical suicide-risk screening",
		RiskLevel:       &critical,
		EscalatedFromID: &originalID,
	}
	if err := repo.Alert().Create(ctx, escalation); err != nil {
		s.logger.Error("Failed to create escalation alert", "alert_id", original.ID, "error", err)
		return nil
	}
	s.metrics.AlertsCreated.WithLabelValues(string(escalation.AlertType), string(critical)).Inc()
	return escalation
}

func alertNotice(alert *models.EmergencyAlert) staffNotice {
	title := fmt.Sprintf("New %s alert", alert.AlertType)
	body := fmt.Sprintf("Student %d raised an %s alert.", alert.StudentID, alert.AlertType)
	if alert.RiskLevel != nil {
		title = fmt.Sprintf("New %s alert (%s risk)", alert.AlertType, *alert.RiskLevel)
		body = fmt.Sprintf("Student %d raised an %s alert with %s suicide risk.", alert.StudentID, alert.AlertType, *alert.RiskLevel)
	}
	if alert.Message != "" {
		body += " Message: " + alert.Message
	}
	return staffNotice{
		Title:       title,
		Body:        body,
		RelatedType: models.RelatedEmergencyAlert,
		RelatedID:   alert.ID,
	}
}

func (s *alertService) broadcastCreated(ctx context.Context, tenant string, response *AlertResponse) {
	for _, role := range models.StaffRoles {
		s.broadcaster.ToRole(ctx, tenant, role, realtime.EventNewAlert, response)
	}
	s.broadcaster.ToUser(ctx, tenant, response.Alert.StudentID, realtime.EventAlertCreated, response.Alert)
}

func (s *alertService) publishCreated(ctx context.Context, tenant string, response *AlertResponse) {
	alert := response.Alert
	data := map[string]interface{}{
		"alert_id":       alert.ID,
		"student_id":     alert.StudentID,
		"alert_type":     alert.AlertType,
		"notified_staff": response.NotifiedStaff,
	}
	if response.RiskAssessment != nil {
		data["risk_score"] = response.RiskAssessment.Score
		data["risk_level"] = response.RiskAssessment.Level
		data["immediate_action_required"] = response.RiskAssessment.ImmediateActionRequired
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventAlertCreated, tenant, data)); err != nil {
		s.logger.Error("Failed to publish alert event", "alert_id", alert.ID, "error", err)
	}

	if response.Escalation != nil {
		escalated := events.NewEvent(events.EventAlertEscalated, tenant, map[string]interface{}{
			"alert_id":          response.Escalation.ID,
			"escalated_from_id": alert.ID,
			"student_id":        alert.StudentID,
		})
		if err := s.publisher.Publish(ctx, escalated); err != nil {
			s.logger.Error("Failed to publish escalation event", "alert_id", response.Escalation.ID, "error", err)
		}
	}
}

func (s *alertService) Acknowledge(ctx context.Context, alertID uint, actor Actor) (*models.EmergencyAlert, error) {
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.UserID, "emergency_alert", "acknowledge", "only staff can acknowledge alerts")
	}
	return s.transition(ctx, alertID, actor, repositories.AlertTransition{
		From: []models.AlertStatus{models.AlertActive},
		To:   models.AlertAcknowledged,
	}, "alert.acknowledged")
}

func (s *alertService) Resolve(ctx context.Context, alertID uint, notes string, actor Actor) (*models.EmergencyAlert, error) {
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.UserID, "emergency_alert", "resolve", "only staff can resolve alerts")
	}
	return s.transition(ctx, alertID, actor, repositories.AlertTransition{
		From:  []models.AlertStatus{models.AlertActive, models.AlertAcknowledged},
		To:    models.AlertResolved,
		Notes: &notes,
	}, "alert.resolved")
}

func (s *alertService) Cancel(ctx context.Context, alertID uint, actor Actor) (*models.EmergencyAlert, error) {
	switch {
	case actor.IsStaff():
	case actor.Role == models.RoleStudent:
		repo, _, err := tenantRepository(ctx, s.repos)
		if err != nil {
			return nil, err
		}
		alert, err := repo.Alert().GetByID(ctx, alertID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrAlertNotFound
			}
			return nil, storeError("load alert", err)
		}
		if alert.StudentID != actor.UserID {
			return nil, ErrAlertNotFound
		}
	default:
		return nil, NewPermissionError(actor.UserID, "emergency_alert", "cancel", "role cannot cancel alerts")
	}

	return s.transition(ctx, alertID, actor, repositories.AlertTransition{
		From: []models.AlertStatus{models.AlertActive},
		To:   models.AlertCancelled,
	}, "alert.cancelled")
}

func (s *alertService) transition(ctx context.Context, alertID uint, actor Actor, t repositories.AlertTransition, action string) (*models.EmergencyAlert, error) {
	repo, pool, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	t.ActorID = actor.UserID
	t.At = s.now()

	applied, err := repo.Alert().Transition(ctx, alertID, t)
	if err != nil {
		s.metrics.AlertTransitions.WithLabelValues(string(t.To), metrics.OutcomeError).Inc()
		return nil, storeError("transition alert", err)
	}
	if !applied {
		s.metrics.AlertTransitions.WithLabelValues(string(t.To), metrics.OutcomeRejected).Inc()
		return nil, ErrAlertNotActive
	}
	s.metrics.AlertTransitions.WithLabelValues(string(t.To), metrics.OutcomeSuccess).Inc()

	alert, err := repo.Alert().GetByID(ctx, alertID)
	if err != nil {
		return nil, storeError("reload alert", err)
	}

	s.logger.Info("Alert status changed",
		"tenant", pool.Name,
		"alert_id", alertID,
		"status", t.To,
		"actor_id", actor.UserID)

	details := map[string]interface{}{"status": t.To}
	if t.Notes != nil && *t.Notes != "" {
		details["notes"] = *t.Notes
	}
	recordAudit(ctx, repo, s.logger, actor, action, models.RelatedEmergencyAlert, alertID, details)

	s.broadcaster.ToUser(ctx, pool.Name, alert.StudentID, "alert_"+string(t.To), alert)

	return alert, nil
}

func (s *alertService) List(ctx context.Context, req AlertListRequest, actor Actor) (*AlertListResponse, error) {
	repo, _, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	filters := repositories.AlertFilters{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	switch {
	case actor.Role == models.RoleStudent:
		own := actor.UserID
		filters.StudentID = &own
	case actor.IsStaff():
		filters.StudentID = req.StudentID
	default:
		return nil, NewPermissionError(actor.UserID, "emergency_alert", "list", "role cannot view alerts")
	}

	alerts, total, err := repo.Alert().List(ctx, filters)
	if err != nil {
		return nil, storeError("list alerts", err)
	}

	return &AlertListResponse{Alerts: alerts, Total: total}, nil
}
