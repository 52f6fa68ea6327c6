package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/wellbeing-service/internal/config"
)

// MasterName identifies the master store in logs and metrics
const MasterName = "master"

var ErrTenantNotFound = errors.New("tenant not found")

// Pool is a named connection pool for one store
type Pool struct {
	Name     string
	LegacyID *int
	DB       *gorm.DB
}

// Registry holds the master pool and every tenant pool. It is built once at
// startup and never mutated afterwards, so lookups need no locking.
type Registry struct {
	master   *Pool
	tenants  []*Pool
	byName   map[string]*Pool
	byLegacy map[int]string
}

// NewRegistry builds a registry from already opened pools. Tenant order is kept
// as given and is the order used when several tenants match a login.
func NewRegistry(master *Pool, tenants []*Pool) (*Registry, error) {
	if master == nil {
		return nil, errors.New("master pool is required")
	}

	r := &Registry{
		master:   master,
		tenants:  make([]*Pool, 0, len(tenants)),
		byName:   make(map[string]*Pool, len(tenants)),
		byLegacy: make(map[int]string),
	}

	for _, p := range tenants {
		if p == nil || p.Name == "" {
			return nil, errors.New("tenant pool must have a name")
		}
		if p.Name == MasterName {
			return nil, fmt.Errorf("tenant name %q is reserved", MasterName)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate tenant %q", p.Name)
		}
		if p.LegacyID != nil {
			if other, dup := r.byLegacy[*p.LegacyID]; dup {
				return nil, fmt.Errorf("legacy id %d used by %q and %q", *p.LegacyID, other, p.Name)
			}
			r.byLegacy[*p.LegacyID] = p.Name
		}
		r.byName[p.Name] = p
		r.tenants = append(r.tenants, p)
	}

	return r, nil
}

// Open connects to the master store and every configured tenant store
func Open(cfg *config.Config, log *slog.Logger) (*Registry, error) {
	return openWith(cfg, log, func(url string) (*gorm.DB, error) {
		return OpenDatabase(url, cfg.Database)
	})
}

// openWith builds the registry from pools opened by open. Every pool opened so
// far is closed when a later store or the registry itself fails.
func openWith(cfg *config.Config, log *slog.Logger, open func(url string) (*gorm.DB, error)) (*Registry, error) {
	masterDB, err := open(cfg.MasterDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open master store: %w", err)
	}
	master := &Pool{Name: MasterName, DB: masterDB}

	tenants := make([]*Pool, 0, len(cfg.Tenants))
	for _, t := range cfg.Tenants {
		db, err := open(t.DatabaseURL)
		if err != nil {
			closePools(append(tenants, master), log)
			return nil, fmt.Errorf("failed to open tenant store %q: %w", t.Name, err)
		}
		tenants = append(tenants, &Pool{Name: t.Name, LegacyID: t.LegacyID, DB: db})
		log.Info("Tenant store connected", "tenant", t.Name)
	}

	r, err := NewRegistry(master, tenants)
	if err != nil {
		closePools(append(tenants, master), log)
		return nil, err
	}
	return r, nil
}

// OpenDatabase opens a single postgres pool with the shared pool limits
func OpenDatabase(url string, dbCfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	return db, nil
}

func (r *Registry) Master() *Pool {
	return r.master
}

// Tenants returns tenant pools in configuration order
func (r *Registry) Tenants() []*Pool {
	out := make([]*Pool, len(r.tenants))
	copy(out, r.tenants)
	return out
}

// Names returns tenant names in configuration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.tenants))
	for i, p := range r.tenants {
		names[i] = p.Name
	}
	return names
}

// Pool returns the tenant pool registered under name
func (r *Registry) Pool(name string) (*Pool, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, name)
	}
	return p, nil
}

// ResolveLegacyTenantID maps a numeric tenant id from older membership rows to a tenant name
func (r *Registry) ResolveLegacyTenantID(id int) (string, bool) {
	name, ok := r.byLegacy[id]
	return name, ok
}

// LegacyID returns the numeric id of a tenant, if it has one
func (r *Registry) LegacyID(name string) *int {
	if p, ok := r.byName[name]; ok {
		return p.LegacyID
	}
	return nil
}

// Ping checks every pool and reports the first failure
func (r *Registry) Ping(ctx context.Context) error {
	for _, p := range append([]*Pool{r.master}, r.tenants...) {
		sqlDB, err := p.DB.DB()
		if err != nil {
			return fmt.Errorf("store %s: %w", p.Name, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("store %s: %w", p.Name, err)
		}
	}
	return nil
}

// Close releases every pool, returning all close errors joined
func (r *Registry) Close() error {
	var errs []error
	for _, p := range append([]*Pool{r.master}, r.tenants...) {
		sqlDB, err := p.DB.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("store %s: %w", p.Name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

func closePools(pools []*Pool, log *slog.Logger) {
	for _, p := range pools {
		if sqlDB, err := p.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Failed to close store", "store", p.Name, "error", err)
			}
		}
	}
}
