package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

type AlertPostgreSQL struct {
	db *gorm.DB
}

func NewAlertPostgreSQL(db *gorm.DB) repositories.AlertRepository {
	return &AlertPostgreSQL{db: db}
}

func (a *AlertPostgreSQL) Create(ctx context.Context, alert *models.EmergencyAlert) error {
	return a.db.WithContext(ctx).Create(alert).Error
}

func (a *AlertPostgreSQL) GetByID(ctx context.Context, id uint) (*models.EmergencyAlert, error) {
	var alert models.EmergencyAlert
	if err := a.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (a *AlertPostgreSQL) List(ctx context.Context, filters repositories.AlertFilters) ([]*models.EmergencyAlert, int64, error) {
	var alerts []*models.EmergencyAlert
	var total int64

	query := a.db.WithContext(ctx).Model(&models.EmergencyAlert{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (a *AlertPostgreSQL) Transition(ctx context.Context, id uint, t repositories.AlertTransition) (bool, error) {
	if len(t.From) == 0 {
		return false, fmt.Errorf("transition to %s has no source status", t.To)
	}

	updates := map[string]interface{}{
		"status":     t.To,
		"updated_at": t.At,
	}
	switch t.To {
	case models.AlertAcknowledged:
		updates["acknowledged_by"] = t.ActorID
		updates["acknowledged_at"] = t.At
	case models.AlertResolved:
		updates["resolved_by"] = t.ActorID
		updates["resolved_at"] = t.At
		updates["resolution_notes"] = t.Notes
	case models.AlertCancelled:
		updates["resolved_by"] = t.ActorID
		updates["resolved_at"] = t.At
	}

	result := a.db.WithContext(ctx).
		Model(&models.EmergencyAlert{}).
		Where("id = ? AND status IN ?", id, t.From).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (a *AlertPostgreSQL) CreateRiskScreening(ctx context.Context, screening *models.SuicideRiskScreening) error {
	return a.db.WithContext(ctx).Create(screening).Error
}
