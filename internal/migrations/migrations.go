package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

// Scope selects which kind of store a migration applies to
type Scope int

const (
	ScopeMaster Scope = iota
	ScopeTenant
)

func (s Scope) String() string {
	if s == ScopeMaster {
		return "master"
	}
	return "tenant"
}

type Migration struct {
	Version int
	Name    string
	Scopes  []Scope
	Up      func(tx *gorm.DB) error
}

func (m Migration) appliesTo(scope Scope) bool {
	for _, s := range m.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// All returns every migration in version order
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "master identity tables",
			Scopes:  []Scope{ScopeMaster},
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.StudentMembership{}, &models.StaffMembership{})
			},
		},
		{
			Version: 2,
			Name:    "tenant clinical tables",
			Scopes:  []Scope{ScopeTenant},
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.User{},
					&models.ScreenerInstance{},
					&models.ScreenerResponse{},
					&models.ScreenerScore{},
					&models.EmergencyAlert{},
					&models.SuicideRiskScreening{},
					&models.StaffNotification{},
					&models.AuditEvent{},
				)
			},
		},
		{
			Version: 3,
			Name:    "case-insensitive email lookup",
			Scopes:  []Scope{ScopeMaster, ScopeTenant},
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))`).Error
			},
		},
		{
			Version: 4,
			Name:    "open alerts index",
			Scopes:  []Scope{ScopeTenant},
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_emergency_alerts_open ON emergency_alerts (created_at DESC) WHERE status IN ('active', 'acknowledged')`).Error
			},
		},
		{
			Version: 5,
			Name:    "unread notifications index",
			Scopes:  []Scope{ScopeTenant},
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_staff_notifications_unread ON staff_notifications (recipient_id) WHERE read_at IS NULL`).Error
			},
		},
	}
}

// Pending returns the migrations of scope not yet recorded as applied, in version order
func Pending(all []Migration, scope Scope, applied map[int]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if m.appliesTo(scope) && !applied[m.Version] {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Apply runs every pending migration of scope against db, each in its own
// transaction together with its schema_migrations row. It returns the number applied.
func Apply(ctx context.Context, db *gorm.DB, scope Scope, store string, logger *slog.Logger) (int, error) {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return 0, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range Pending(All(), scope, applied) {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return count, fmt.Errorf("migration %d (%s) failed on %s: %w", m.Version, m.Name, store, err)
		}
		logger.Info("Migration applied", "store", store, "version", m.Version, "name", m.Name)
		count++
	}

	return count, nil
}

func appliedVersions(db *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := db.Model(&models.SchemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
