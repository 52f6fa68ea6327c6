package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

// staffOrder sorts staff in notification priority order
var staffOrder = staffOrderClause(models.StaffRoles)

func staffOrderClause(roles []models.UserRole) string {
	var b strings.Builder
	b.WriteString("CASE role")
	for _, r := range roles {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", r, r.StaffPriority())
	}
	fmt.Fprintf(&b, " ELSE %d END", len(models.StaffRoles))
	return b.String()
}

type UserPostgreSQL struct {
	db           *gorm.DB
	store        string
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, store string, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{db: db, store: store, cacheManager: cacheManager}
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) ListStaff(ctx context.Context, limit int) ([]*models.User, error) {
	cacheKey := fmt.Sprintf("%s:%d", u.store, limit)
	var staff []*models.User

	err := u.cacheManager.Staff.CacheOrExecute(ctx, cacheKey, &staff, cache.StaffCacheConfig.TTL, func() (interface{}, error) {
		var rows []*models.User
		query := u.db.WithContext(ctx).
			Where("role IN ?", models.StaffRoles).
			Order(staffOrder).
			Order("id")
		if limit > 0 {
			query = query.Limit(limit)
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list staff: %w", err)
		}
		return rows, nil
	})

	return staff, err
}
