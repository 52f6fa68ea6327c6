package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/SAP-F-2025/wellbeing-service/internal/migrations"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
)

func main() {
	only := flag.String("store", "", "apply only to this store (\"master\" or a tenant name)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	registry, err := tenancy.Open(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer registry.Close()

	// Cached bindings and rosters may describe rows the migrations rewrote
	redisClient := cache.Connect(cfg.RedisURL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	caches := cache.NewCacheManager(redisClient)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	type target struct {
		pool  *tenancy.Pool
		scope migrations.Scope
	}
	targets := []target{{registry.Master(), migrations.ScopeMaster}}
	for _, p := range registry.Tenants() {
		targets = append(targets, target{p, migrations.ScopeTenant})
	}

	failed := false
	for _, t := range targets {
		if *only != "" && *only != t.pool.Name {
			continue
		}
		n, err := migrations.Apply(ctx, t.pool.DB, t.scope, t.pool.Name, logger)
		if err != nil {
			logger.Error("Migration failed", "store", t.pool.Name, "error", err)
			failed = true
			continue
		}
		logger.Info("Store up to date", "store", t.pool.Name, "scope", t.scope.String(), "applied", n)
		if n == 0 {
			continue
		}
		if err := invalidate(ctx, caches, t.scope, t.pool.Name); err != nil {
			logger.Warn("Failed to invalidate cache", "store", t.pool.Name, "error", err)
		}
	}

	if failed {
		os.Exit(1)
	}
}

func invalidate(ctx context.Context, caches *cache.CacheManager, scope migrations.Scope, store string) error {
	if scope == migrations.ScopeMaster {
		return caches.InvalidateBindings(ctx)
	}
	return caches.InvalidateStaff(ctx, store)
}
