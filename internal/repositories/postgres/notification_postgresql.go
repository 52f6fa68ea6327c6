package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, notification *models.StaffNotification) error {
	return n.db.WithContext(ctx).Create(notification).Error
}

func (n *NotificationPostgreSQL) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.StaffNotification, int64, error) {
	var notifications []*models.StaffNotification
	var total int64

	query := n.db.WithContext(ctx).
		Model(&models.StaffNotification{}).
		Where("recipient_id = ?", filters.RecipientID)
	if filters.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead sets read_at once. It reports false only when the notification
// does not exist for this recipient; marking twice is not an error.
func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (bool, error) {
	db := n.db.WithContext(ctx)

	result := db.Model(&models.StaffNotification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&models.StaffNotification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Record(ctx context.Context, event *models.AuditEvent) error {
	return a.db.WithContext(ctx).Create(event).Error
}
