package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RelatedEmergencyAlert   = "emergency_alert"
	RelatedScreenerInstance = "screener_instance"
)

type StaffNotification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	RecipientID uint       `json:"recipient_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"not null;size:200"`
	Body        string     `json:"body" gorm:"type:text"`
	RelatedType string     `json:"related_type" gorm:"size:32"`
	RelatedID   uint       `json:"related_id"`
	ReadAt      *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (StaffNotification) TableName() string {
	return "staff_notifications"
}

// AuditEvent is an append-only record of a clinical action
type AuditEvent struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ActorID    uint           `json:"actor_id" gorm:"not null;index"`
	ActorRole  UserRole       `json:"actor_role" gorm:"size:32"`
	Action     string         `json:"action" gorm:"not null;size:64;index"`
	EntityType string         `json:"entity_type" gorm:"not null;size:32"`
	EntityID   uint           `json:"entity_id" gorm:"index"`
	Details    datatypes.JSON `json:"details" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// SchemaMigration records an applied schema version in each store
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:200"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}
