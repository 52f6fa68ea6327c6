package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
)

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	Registry    *tenancy.Registry
	RedisClient *redis.Client
}

// RepositoryManager builds one repository per store of the registry
type RepositoryManager struct {
	config       RepositoryConfig
	cacheManager *cache.CacheManager
	master       repositories.Repository
	tenants      map[string]repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{config: config}
}

func (m *RepositoryManager) Initialize() error {
	if m.config.Registry == nil {
		return errors.New("tenant registry is required")
	}

	m.cacheManager = cache.NewCacheManager(m.config.RedisClient)

	master := m.config.Registry.Master()
	m.master = NewPostgreSQLRepository(master.DB, master.Name, m.cacheManager)

	m.tenants = make(map[string]repositories.Repository)
	for _, p := range m.config.Registry.Tenants() {
		m.tenants[p.Name] = NewPostgreSQLRepository(p.DB, p.Name, m.cacheManager)
	}

	return nil
}

func (m *RepositoryManager) Master() repositories.Repository {
	return m.master
}

func (m *RepositoryManager) Tenant(name string) (repositories.Repository, error) {
	repo, ok := m.tenants[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrTenantNotFound, name)
	}
	return repo, nil
}

// HealthCheck pings every store; the cache is optional and not checked
func (m *RepositoryManager) HealthCheck(ctx context.Context) error {
	return m.config.Registry.Ping(ctx)
}

// Shutdown closes every store pool
func (m *RepositoryManager) Shutdown(ctx context.Context) error {
	return m.config.Registry.Close()
}
