package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
)

// tenantRepository returns the repository of the pool routed for this request.
// A request without a routed pool never falls back to another store.
func tenantRepository(ctx context.Context, repos repositories.Provider) (repositories.Repository, *tenancy.Pool, error) {
	pool, ok := tenancy.PoolFromContext(ctx)
	if !ok {
		return nil, nil, ErrTenantNotIdentified
	}
	repo, err := repos.Tenant(pool.Name)
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			return nil, nil, ErrTenantNotIdentified
		}
		return nil, nil, err
	}
	return repo, pool, nil
}

func toJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// recordAudit writes an audit event. Failures are logged and never returned.
func recordAudit(ctx context.Context, repo repositories.Repository, logger *slog.Logger, actor Actor, action, entityType string, entityID uint, details map[string]interface{}) {
	event := &models.AuditEvent{
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    toJSON(details),
	}
	if err := repo.Audit().Record(ctx, event); err != nil {
		logger.Error("Failed to record audit event",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err)
	}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// staffNotice is one notification addressed to every selected staff member
type staffNotice struct {
	Title       string
	Body        string
	RelatedType string
	RelatedID   uint
}

// staffNotifier fans a notice out to staff of one tenant. Each recipient is
// written independently; a failed write is logged and the loop continues.
type staffNotifier struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// notify returns the staff that were successfully notified. limit <= 0 notifies all staff.
func (n *staffNotifier) notify(ctx context.Context, repo repositories.Repository, notice staffNotice, limit int) []*models.User {
	staff, err := repo.User().ListStaff(ctx, limit)
	if err != nil {
		n.logger.Error("Failed to load staff for notification",
			"related_type", notice.RelatedType,
			"related_id", notice.RelatedID,
			"error", err)
		return nil
	}

	notified := make([]*models.User, 0, len(staff))
	for _, member := range staff {
		row := &models.StaffNotification{
			RecipientID: member.ID,
			Title:       notice.Title,
			Body:        notice.Body,
			RelatedType: notice.RelatedType,
			RelatedID:   notice.RelatedID,
		}
		if err := repo.Notification().Create(ctx, row); err != nil {
			n.metrics.NotificationWrites.WithLabelValues(metrics.OutcomeFailure).Inc()
			n.logger.Error("Failed to notify staff member",
				"recipient_id", member.ID,
				"related_type", notice.RelatedType,
				"related_id", notice.RelatedID,
				"error", err)
			continue
		}
		n.metrics.NotificationWrites.WithLabelValues(metrics.OutcomeSuccess).Inc()
		notified = append(notified, member)
	}

	return notified
}
