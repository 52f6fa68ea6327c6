package models

import (
	"time"
)

type UserRole string
type Role = UserRole

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleExpert     UserRole = "expert"
	RoleAssociate  UserRole = "associate"
	RoleStaff      UserRole = "staff"
	RoleSuperAdmin UserRole = "superadmin"
)

// StaffRoles lists tenant staff roles in notification priority order.
var StaffRoles = []UserRole{RoleAdmin, RoleExpert, RoleAssociate, RoleStaff}

// IsStaff reports whether the role belongs to tenant staff
func (r UserRole) IsStaff() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// StaffPriority orders staff for alert fan-out; lower is notified first
func (r UserRole) StaffPriority() int {
	for i, s := range StaffRoles {
		if r == s {
			return i
		}
	}
	return len(StaffRoles)
}

// User is a credential-bearing account in either the master store or a tenant store
type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:32;index"`
	FullName     string   `json:"full_name" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// StudentMembership binds a master-store user to a tenant as a student.
// Older rows only carry the numeric LegacyTenantID.
type StudentMembership struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	UserID         uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	TenantName     *string `json:"tenant_name" gorm:"size:100"`
	LegacyTenantID *int    `json:"legacy_tenant_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (StudentMembership) TableName() string {
	return "student_memberships"
}

// StaffMembership binds a master-store user to a tenant as staff
type StaffMembership struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	UserID         uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	TenantName     *string `json:"tenant_name" gorm:"size:100"`
	LegacyTenantID *int    `json:"legacy_tenant_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (StaffMembership) TableName() string {
	return "staff_memberships"
}

// TenantBinding is the resolved tenant of a master-store user
type TenantBinding struct {
	TenantName     *string `json:"tenant_name,omitempty"`
	LegacyTenantID *int    `json:"legacy_tenant_id,omitempty"`
}

// Bound reports whether the binding names a tenant in any form
func (b *TenantBinding) Bound() bool {
	return b != nil && (b.TenantName != nil || b.LegacyTenantID != nil)
}
