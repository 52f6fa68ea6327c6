package repositories

import (
	"context"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

// UserRepository reads credentials and rosters of one store
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// ListStaff returns staff ordered admin, expert, associate, staff; limit <= 0 means all
	ListStaff(ctx context.Context, limit int) ([]*models.User, error)
}

// MembershipRepository resolves master-store users to tenants
type MembershipRepository interface {
	// GetBinding checks student memberships before staff memberships and
	// returns an unbound binding when the user has neither
	GetBinding(ctx context.Context, userID uint) (*models.TenantBinding, error)
}
