package postgres

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

type MembershipPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewMembershipPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.MembershipRepository {
	return &MembershipPostgreSQL{db: db, cacheManager: cacheManager}
}

func (m *MembershipPostgreSQL) GetBinding(ctx context.Context, userID uint) (*models.TenantBinding, error) {
	var binding models.TenantBinding
	err := m.cacheManager.Binding.CacheOrExecute(ctx, strconv.FormatUint(uint64(userID), 10), &binding, cache.BindingCacheConfig.TTL, func() (interface{}, error) {
		return m.loadBinding(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (m *MembershipPostgreSQL) loadBinding(ctx context.Context, userID uint) (*models.TenantBinding, error) {
	var student models.StudentMembership
	err := m.db.WithContext(ctx).Where("user_id = ?", userID).Take(&student).Error
	if err == nil {
		return &models.TenantBinding{TenantName: student.TenantName, LegacyTenantID: student.LegacyTenantID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var staff models.StaffMembership
	err = m.db.WithContext(ctx).Where("user_id = ?", userID).Take(&staff).Error
	if err == nil {
		return &models.TenantBinding{TenantName: staff.TenantName, LegacyTenantID: staff.LegacyTenantID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &models.TenantBinding{}, nil
}
