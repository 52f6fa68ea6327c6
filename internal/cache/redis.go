package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect returns nil when url is empty, malformed or the server does not
// answer a ping.
func Connect(url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("Invalid REDIS_URL, continuing without redis", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, continuing without redis", "error", err)
		_ = client.Close()
		return nil
	}

	return client
}
