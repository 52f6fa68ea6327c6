package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
)

// PostgreSQLRepository implements repositories.Repository for one store
type PostgreSQLRepository struct {
	db           *gorm.DB
	store        string
	cacheManager *cache.CacheManager

	user         repositories.UserRepository
	membership   repositories.MembershipRepository
	screener     repositories.ScreenerRepository
	alert        repositories.AlertRepository
	notification repositories.NotificationRepository
	audit        repositories.AuditRepository
}

// NewPostgreSQLRepository binds every sub-repository to db. store names the
// store in cache keys so tenants never share entries.
func NewPostgreSQLRepository(db *gorm.DB, store string, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}

	repo := &PostgreSQLRepository{
		db:           db,
		store:        store,
		cacheManager: cacheManager,
	}

	repo.user = NewUserPostgreSQL(db, store, cacheManager)
	repo.membership = NewMembershipPostgreSQL(db, cacheManager)
	repo.screener = NewScreenerPostgreSQL(db)
	repo.alert = NewAlertPostgreSQL(db)
	repo.notification = NewNotificationPostgreSQL(db)
	repo.audit = NewAuditPostgreSQL(db)

	return repo
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) Membership() repositories.MembershipRepository {
	return r.membership
}

func (r *PostgreSQLRepository) Screener() repositories.ScreenerRepository {
	return r.screener
}

func (r *PostgreSQLRepository) Alert() repositories.AlertRepository {
	return r.alert
}

func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}

func (r *PostgreSQLRepository) Audit() repositories.AuditRepository {
	return r.audit
}

// WithTransaction executes fn with a repository bound to a single transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgreSQLRepository(tx, r.store, r.cacheManager))
	})
}

// Ping checks the store connection
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// paginate applies limit and offset with a default page size of 50 and a cap of 200
func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query.Limit(limit)
}
