package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

type ScreenerPostgreSQL struct {
	db *gorm.DB
}

func NewScreenerPostgreSQL(db *gorm.DB) repositories.ScreenerRepository {
	return &ScreenerPostgreSQL{db: db}
}

func (s *ScreenerPostgreSQL) Create(ctx context.Context, instance *models.ScreenerInstance) error {
	return s.db.WithContext(ctx).Create(instance).Error
}

func (s *ScreenerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ScreenerInstance, error) {
	var instance models.ScreenerInstance
	err := s.db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_index")
		}).
		Preload("Score").
		First(&instance, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &instance, nil
}

func (s *ScreenerPostgreSQL) List(ctx context.Context, filters repositories.ScreenerFilters) ([]*models.ScreenerInstance, int64, error) {
	var instances []*models.ScreenerInstance
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ScreenerInstance{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ScreenerType != nil {
		query = query.Where("screener_type = ?", *filters.ScreenerType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Preload("Score").Find(&instances).Error; err != nil {
		return nil, 0, err
	}

	return instances, total, nil
}

func (s *ScreenerPostgreSQL) LatestCompleted(ctx context.Context, studentID uint, screenerType models.ScreenerType) (*models.ScreenerInstance, error) {
	var instance models.ScreenerInstance
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND screener_type = ? AND status = ?", studentID, screenerType, models.ScreenerCompleted).
		Order("completed_at DESC").
		Take(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &instance, nil
}

func (s *ScreenerPostgreSQL) ReplaceResponses(ctx context.Context, instanceID uint, responses []models.ScreenerResponse) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("instance_id = ?", instanceID).Delete(&models.ScreenerResponse{}).Error; err != nil {
		return err
	}
	if len(responses) == 0 {
		return nil
	}
	for i := range responses {
		responses[i].InstanceID = instanceID
	}
	return db.Create(&responses).Error
}

func (s *ScreenerPostgreSQL) MarkCompleted(ctx context.Context, instanceID uint, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.ScreenerInstance{}).
		Where("id = ? AND status = ?", instanceID, models.ScreenerAssigned).
		Updates(map[string]interface{}{
			"status":       models.ScreenerCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *ScreenerPostgreSQL) CreateScore(ctx context.Context, score *models.ScreenerScore) error {
	return s.db.WithContext(ctx).Create(score).Error
}
