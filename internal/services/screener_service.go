package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

type screenerService struct {
	repos       repositories.Provider
	notifier    *staffNotifier
	publisher   events.EventPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	validator   *validator.Validator
	reuseWindow time.Duration
	now         func() time.Time
}

func NewScreenerService(
	repos repositories.Provider,
	publisher events.EventPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	v *validator.Validator,
	reuseWindow time.Duration,
) ScreenerService {
	return &screenerService{
		repos:       repos,
		notifier:    &staffNotifier{logger: logger, metrics: m},
		publisher:   publisher,
		logger:      logger,
		metrics:     m,
		validator:   v,
		reuseWindow: reuseWindow,
		now:         time.Now,
	}
}

func (s *screenerService) Catalog() []ScreenerCatalogEntry {
	return ScreenerCatalog()
}

func (s *screenerService) Create(ctx context.Context, req *CreateScreenerRequest, actor Actor) (*models.ScreenerInstance, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	repo, pool, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	instance := &models.ScreenerInstance{
		ScreenerType: req.ScreenerType,
		Status:       models.ScreenerAssigned,
	}
	override := false

	switch {
	case actor.Role == models.RoleStudent:
		// Students may only start screeners for themselves and cannot bypass the reuse window
		if req.StudentID != nil && *req.StudentID != actor.UserID {
			return nil, ErrStudentNotFound
		}
		instance.StudentID = actor.UserID
		instance.TriggerSource = models.TriggerSelfStarted
	case actor.IsStaff():
		if req.StudentID == nil {
			return nil, newValidationError("studentId", "is required when assigning a screener", nil)
		}
		student, err := repo.User().GetByID(ctx, *req.StudentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrStudentNotFound
			}
			return nil, storeError("load student", err)
		}
		if student.Role != models.RoleStudent {
			return nil, ErrStudentNotFound
		}
		instance.StudentID = student.ID
		instance.TriggerSource = models.TriggerStaffAssigned
		assignedBy := actor.UserID
		instance.AssignedBy = &assignedBy
		override = req.OverrideFrequency
	default:
		return nil, NewPermissionError(actor.UserID, "screener", "create", "role cannot create screeners")
	}

	if !override {
		if err := s.checkReuseWindow(ctx, repo, instance.StudentID, instance.ScreenerType); err != nil {
			return nil, err
		}
	}

	if err := repo.Screener().Create(ctx, instance); err != nil {
		return nil, storeError("create screener", err)
	}

	s.logger.Info("Screener assigned",
		"tenant", pool.Name,
		"instance_id", instance.ID,
		"student_id", instance.StudentID,
		"type", instance.ScreenerType,
		"trigger", instance.TriggerSource,
		"override", override)

	recordAudit(ctx, repo, s.logger, actor, "screener.assigned", models.RelatedScreenerInstance, instance.ID, map[string]interface{}{
		"student_id":     instance.StudentID,
		"screener_type":  instance.ScreenerType,
		"trigger_source": instance.TriggerSource,
		"override":       override,
	})

	return instance, nil
}

func (s *screenerService) checkReuseWindow(ctx context.Context, repo repositories.Repository, studentID uint, screenerType models.ScreenerType) error {
	latest, err := repo.Screener().LatestCompleted(ctx, studentID, screenerType)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return storeError("load latest screener", err)
	}
	if latest.CompletedAt == nil {
		return nil
	}

	nextEligible := latest.CompletedAt.Add(s.reuseWindow)
	if s.now().Before(nextEligible) {
		s.metrics.ScreenersThrottled.Inc()
		return &RecentlyCompletedError{
			ScreenerType:   string(screenerType),
			CompletedAt:    *latest.CompletedAt,
			NextEligibleAt: nextEligible,
		}
	}
	return nil
}

func (s *screenerService) Submit(ctx context.Context, instanceID uint, req *SubmitScreenerRequest, actor Actor) (*ScreenerResultResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, NewPermissionError(actor.UserID, "screener", "submit", "only the assigned student can submit")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	repo, pool, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	instance, err := repo.Screener().GetByID(ctx, instanceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScreenerNotFound
		}
		return nil, storeError("load screener", err)
	}
	if instance.StudentID != actor.UserID {
		return nil, ErrScreenerNotFound
	}
	if instance.Status == models.ScreenerCompleted {
		return nil, ErrAlreadyCompleted
	}

	answers, err := normalizeResponses(instance.ScreenerType, req.Responses)
	if err != nil {
		return nil, err
	}

	result, err := ScoreScreener(instance.ScreenerType, answers)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	score := &models.ScreenerScore{
		InstanceID:   instance.ID,
		TotalScore:   result.Total,
		SeverityBand: result.Band,
		Positive:     result.Positive,
		Details:      toJSON(result.Details),
	}

	responses := make([]models.ScreenerResponse, len(answers))
	for i, v := range answers {
		responses[i] = models.ScreenerResponse{QuestionIndex: i, AnswerValue: v}
	}

	err = repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Screener().ReplaceResponses(ctx, instance.ID, responses); err != nil {
			return fmt.Errorf("replace responses: %w", err)
		}
		completed, err := tx.Screener().MarkCompleted(ctx, instance.ID, completedAt)
		if err != nil {
			return fmt.Errorf("complete screener: %w", err)
		}
		if !completed {
			return ErrAlreadyCompleted
		}
		if err := tx.Screener().CreateScore(ctx, score); err != nil {
			return fmt.Errorf("create score: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			return nil, ErrAlreadyCompleted
		}
		return nil, storeError("submit screener", err)
	}

	instance.Status = models.ScreenerCompleted
	instance.CompletedAt = &completedAt
	instance.Responses = responses
	instance.Score = score

	s.metrics.ScreenersCompleted.WithLabelValues(string(instance.ScreenerType), strconv.FormatBool(result.Positive)).Inc()
	s.logger.Info("Screener completed",
		"tenant", pool.Name,
		"instance_id", instance.ID,
		"type", instance.ScreenerType,
		"total", result.Total,
		"band", result.Band,
		"positive", result.Positive)

	recordAudit(ctx, repo, s.logger, actor, "screener.completed", models.RelatedScreenerInstance, instance.ID, map[string]interface{}{
		"total_score":   result.Total,
		"severity_band": result.Band,
		"positive":      result.Positive,
	})

	if result.Positive {
		s.escalatePositive(ctx, repo, pool.Name, instance, result)
	}

	return &ScreenerResultResponse{Instance: instance, Score: score}, nil
}

// escalatePositive notifies every staff member of the tenant. It never fails the submission.
func (s *screenerService) escalatePositive(ctx context.Context, repo repositories.Repository, tenant string, instance *models.ScreenerInstance, result *ScoreResult) {
	notice := staffNotice{
		Title:       fmt.Sprintf("Positive %s screen", instance.ScreenerType),
		Body:        fmt.Sprintf("Student %d scored %d (%s) on %s.", instance.StudentID, result.Total, result.Band, instance.ScreenerType),
		RelatedType: models.RelatedScreenerInstance,
		RelatedID:   instance.ID,
	}
	if result.Details.SelfHarmFlag {
		notice.Body += " The self-harm item was endorsed."
	}

	notified := s.notifier.notify(ctx, repo, notice, 0)

	event := events.NewEvent(events.EventScreenerPositive, tenant, map[string]interface{}{
		"instance_id":    instance.ID,
		"student_id":     instance.StudentID,
		"screener_type":  instance.ScreenerType,
		"total_score":    result.Total,
		"severity_band":  result.Band,
		"self_harm_flag": result.Details.SelfHarmFlag,
		"notified_staff": len(notified),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish screener event", "instance_id", instance.ID, "error", err)
	}
}

func (s *screenerService) Get(ctx context.Context, instanceID uint, actor Actor) (*models.ScreenerInstance, error) {
	repo, _, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	instance, err := repo.Screener().GetByID(ctx, instanceID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScreenerNotFound
		}
		return nil, storeError("load screener", err)
	}

	switch {
	case actor.IsStaff():
		return instance, nil
	case actor.Role == models.RoleStudent && instance.StudentID == actor.UserID:
		return instance, nil
	default:
		return nil, ErrScreenerNotFound
	}
}

func (s *screenerService) List(ctx context.Context, req ScreenerListRequest, actor Actor) (*ScreenerListResponse, error) {
	repo, _, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	filters := repositories.ScreenerFilters{
		ScreenerType: req.ScreenerType,
		Status:       req.Status,
		Limit:        req.Limit,
		Offset:       req.Offset,
	}

	switch {
	case actor.Role == models.RoleStudent:
		own := actor.UserID
		filters.StudentID = &own
	case actor.IsStaff():
		if req.StudentID == nil {
			return nil, newValidationError("studentId", "is required", nil)
		}
		filters.StudentID = req.StudentID
	default:
		return nil, NewPermissionError(actor.UserID, "screener", "list", "role cannot view screeners")
	}

	instances, total, err := repo.Screener().List(ctx, filters)
	if err != nil {
		return nil, storeError("list screeners", err)
	}

	return &ScreenerListResponse{Screeners: instances, Total: total}, nil
}

func (s *screenerService) ExportResults(ctx context.Context, studentID uint, actor Actor, w io.Writer) error {
	if !actor.IsStaff() {
		return NewPermissionError(actor.UserID, "screener", "export", "only staff can export results")
	}

	repo, pool, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return err
	}

	student, err := repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return storeError("load student", err)
	}

	completed := models.ScreenerCompleted
	instances, _, err := repo.Screener().List(ctx, repositories.ScreenerFilters{
		StudentID: &student.ID,
		Status:    &completed,
		Limit:     200,
	})
	if err != nil {
		return storeError("list screeners", err)
	}

	s.logger.Info("Exporting screener results", "tenant", pool.Name, "student_id", student.ID, "rows", len(instances))
	recordAudit(ctx, repo, s.logger, actor, "screener.exported", "student", student.ID, map[string]interface{}{
		"rows": len(instances),
	})

	return writeScreenerWorkbook(w, student, instances)
}
