package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the wellbeing service
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	MasterDatabaseURL string
	Tenants           []TenantConfig
	Database          DatabaseConfig

	JWT      JWTConfig
	Login    LoginConfig
	Screener ScreenerConfig
	Alert    AlertConfig

	RedisURL string
	Kafka    KafkaConfig
}

// TenantConfig describes one school store
type TenantConfig struct {
	Name        string
	LegacyID    *int
	DatabaseURL string
}

type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	SigningKey string
	TTL        time.Duration
}

type LoginConfig struct {
	// StoreTimeout bounds each per-store credential lookup and the join over all of them.
	StoreTimeout time.Duration
}

type ScreenerConfig struct {
	ReuseWindow time.Duration
}

type AlertConfig struct {
	FanoutLimit int
}

type KafkaConfig struct {
	Brokers []string
}

// IsProduction reports whether error details must be hidden from clients
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads configuration from the environment, loading a .env file first when present
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	return loadFrom(os.Getenv)
}

func loadFrom(lookup func(string) string) (*Config, error) {
	cfg := &Config{
		Port:              getenv(lookup, "PORT", "8080"),
		Environment:       getenv(lookup, "ENVIRONMENT", "development"),
		LogLevel:          parseLogLevel(getenv(lookup, "LOG_LEVEL", "info")),
		MasterDatabaseURL: lookup("MASTER_DATABASE_URL"),
		Database: DatabaseConfig{
			MaxOpenConns:    getenvInt(lookup, "DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getenvInt(lookup, "DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getenvDuration(lookup, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWT: JWTConfig{
			SigningKey: lookup("JWT_SIGNING_KEY"),
			TTL:        getenvDuration(lookup, "JWT_TTL", 7*24*time.Hour),
		},
		Login: LoginConfig{
			StoreTimeout: getenvDuration(lookup, "LOGIN_STORE_TIMEOUT", 4*time.Second),
		},
		Screener: ScreenerConfig{
			ReuseWindow: getenvDuration(lookup, "SCREENER_REUSE_WINDOW", 14*24*time.Hour),
		},
		Alert: AlertConfig{
			FanoutLimit: getenvInt(lookup, "ALERT_FANOUT_LIMIT", 10),
		},
		RedisURL: lookup("REDIS_URL"),
		Kafka: KafkaConfig{
			Brokers: splitList(lookup("KAFKA_BROKERS")),
		},
	}

	tenants, err := parseTenants(lookup("TENANTS"), lookup)
	if err != nil {
		return nil, err
	}
	cfg.Tenants = tenants

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.MasterDatabaseURL == "" {
		errs = append(errs, errors.New("MASTER_DATABASE_URL is required"))
	}
	if c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Login.StoreTimeout <= 0 {
		errs = append(errs, errors.New("LOGIN_STORE_TIMEOUT must be positive"))
	}
	if c.Alert.FanoutLimit < 1 {
		errs = append(errs, errors.New("ALERT_FANOUT_LIMIT must be at least 1"))
	}
	return errors.Join(errs...)
}

// parseTenants reads "name[:legacyId],..." and resolves each tenant's
// TENANT_<NAME>_DATABASE_URL. Order is preserved.
func parseTenants(raw string, lookup func(string) string) ([]TenantConfig, error) {
	var tenants []TenantConfig
	seen := make(map[string]bool)

	for _, entry := range splitList(raw) {
		name, idPart, hasID := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid tenant entry %q", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate tenant %q", name)
		}
		seen[name] = true

		tenant := TenantConfig{Name: name}
		if hasID {
			id, err := strconv.Atoi(strings.TrimSpace(idPart))
			if err != nil {
				return nil, fmt.Errorf("invalid legacy id for tenant %q: %w", name, err)
			}
			tenant.LegacyID = &id
		}

		key := "TENANT_" + envName(name) + "_DATABASE_URL"
		tenant.DatabaseURL = lookup(key)
		if tenant.DatabaseURL == "" {
			return nil, fmt.Errorf("%s is required for tenant %q", key, name)
		}

		tenants = append(tenants, tenant)
	}

	return tenants, nil
}

func envName(tenant string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(tenant))
}

func getenv(lookup func(string) string, key, fallback string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(lookup func(string) string, key string, fallback int) int {
	v := lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(lookup func(string) string, key string, fallback time.Duration) time.Duration {
	v := lookup(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
