package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

type notificationService struct {
	repos  repositories.Provider
	logger *slog.Logger
	now    func() time.Time
}

func NewNotificationService(repos repositories.Provider, logger *slog.Logger) NotificationService {
	return &notificationService{
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

func (s *notificationService) List(ctx context.Context, actor Actor, unreadOnly bool, limit, offset int) (*NotificationListResponse, error) {
	if !actor.IsStaff() {
		return nil, NewPermissionError(actor.UserID, "notification", "list", "only staff receive notifications")
	}

	repo, _, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return nil, err
	}

	notifications, total, err := repo.Notification().List(ctx, repositories.NotificationFilters{
		RecipientID: actor.UserID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, storeError("list notifications", err)
	}
	if notifications == nil {
		notifications = []*models.StaffNotification{}
	}

	return &NotificationListResponse{Notifications: notifications, Total: total}, nil
}

// MarkRead is idempotent for the recipient; other users get ErrNotificationNotFound
func (s *notificationService) MarkRead(ctx context.Context, notificationID uint, actor Actor) error {
	repo, _, err := tenantRepository(ctx, s.repos)
	if err != nil {
		return err
	}

	found, err := repo.Notification().MarkRead(ctx, notificationID, actor.UserID, s.now())
	if err != nil {
		return storeError("mark notification read", err)
	}
	if !found {
		return ErrNotificationNotFound
	}

	s.logger.Debug("Notification read", "notification_id", notificationID, "recipient_id", actor.UserID)
	return nil
}
