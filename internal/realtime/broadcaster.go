package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

const (
	EventNewAlert     = "new_alert"
	EventAlertCreated = "alert_created"
)

// Message is the envelope delivered to subscribers
type Message struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Broadcaster delivers best-effort real-time messages. Implementations must
// never block the caller for long and never fail the caller's operation.
type Broadcaster interface {
	ToRole(ctx context.Context, tenant string, role models.UserRole, event string, data interface{})
	ToUser(ctx context.Context, tenant string, userID uint, event string, data interface{})
}

// RoleChannel is the Pub/Sub channel for every member of a role in a tenant
func RoleChannel(tenant string, role models.UserRole) string {
	return fmt.Sprintf("realtime:%s:role:%s", tenant, role)
}

// UserChannel is the Pub/Sub channel of a single user in a tenant
func UserChannel(tenant string, userID uint) string {
	return fmt.Sprintf("realtime:%s:user:%d", tenant, userID)
}

// RedisBroadcaster publishes envelopes over Redis Pub/Sub
type RedisBroadcaster struct {
	client  *redis.Client
	logger  *slog.Logger
	timeout time.Duration
}

func NewRedisBroadcaster(client *redis.Client, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger, timeout: 2 * time.Second}
}

func (b *RedisBroadcaster) ToRole(ctx context.Context, tenant string, role models.UserRole, event string, data interface{}) {
	b.publish(ctx, RoleChannel(tenant, role), event, data)
}

func (b *RedisBroadcaster) ToUser(ctx context.Context, tenant string, userID uint, event string, data interface{}) {
	b.publish(ctx, UserChannel(tenant, userID), event, data)
}

func (b *RedisBroadcaster) publish(ctx context.Context, channel, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		b.logger.Error("Failed to encode realtime message", "channel", channel, "event", event, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	if err := b.client.Publish(pubCtx, channel, payload).Err(); err != nil {
		b.logger.Warn("Realtime publish failed", "channel", channel, "event", event, "error", err)
	}
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: raw, Timestamp: time.Now().UTC()})
}

// NopBroadcaster drops every message; used when Redis is not configured
type NopBroadcaster struct{}

func (NopBroadcaster) ToRole(context.Context, string, models.UserRole, string, interface{}) {}
func (NopBroadcaster) ToUser(context.Context, string, uint, string, interface{})            {}
