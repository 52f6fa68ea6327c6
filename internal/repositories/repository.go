package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the row does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// Repository aggregates the repositories of a single store
type Repository interface {
	User() UserRepository
	Membership() MembershipRepository
	Screener() ScreenerRepository
	Alert() AlertRepository
	Notification() NotificationRepository
	Audit() AuditRepository

	// Transaction support; fn receives a repository bound to the transaction
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error
}

// Provider hands out repositories bound to the master store or to one tenant store
type Provider interface {
	Master() Repository
	Tenant(name string) (Repository, error)
}

// RepositoryManager owns the per-store repositories for the process lifetime
type RepositoryManager interface {
	Provider

	// Initialize builds one repository per registered store
	Initialize() error

	// Health check for every store
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
