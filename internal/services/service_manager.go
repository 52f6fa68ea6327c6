package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/realtime"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

// ServiceManagerConfig holds the tunables of the domain services
type ServiceManagerConfig struct {
	LoginStoreTimeout   time.Duration
	ScreenerReuseWindow time.Duration
	AlertFanoutLimit    int
}

// Validate checks the configuration before any service is built
func (c ServiceManagerConfig) Validate() error {
	var errs []error
	if c.LoginStoreTimeout <= 0 {
		errs = append(errs, errors.New("login store timeout must be positive"))
	}
	if c.ScreenerReuseWindow < 0 {
		errs = append(errs, errors.New("screener reuse window cannot be negative"))
	}
	if c.AlertFanoutLimit < 0 {
		errs = append(errs, errors.New("alert fan-out limit cannot be negative"))
	}
	return errors.Join(errs...)
}

// Dependencies are the shared collaborators injected into every service
type Dependencies struct {
	Repositories repositories.RepositoryManager
	Registry     *tenancy.Registry
	Issuer       *auth.Issuer
	Broadcaster  realtime.Broadcaster
	Publisher    events.EventPublisher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Validator    *validator.Validator
}

type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	identityService     IdentityService
	screenerService     ScreenerService
	alertService        AlertService
	notificationService NotificationService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Broadcaster == nil {
		deps.Broadcaster = realtime.NopBroadcaster{}
	}
	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}
	if sm.deps.Repositories == nil || sm.deps.Registry == nil || sm.deps.Issuer == nil || sm.deps.Publisher == nil {
		return errors.New("service manager is missing required dependencies")
	}

	d := sm.deps
	sm.identityService = NewIdentityService(d.Repositories, d.Registry, d.Issuer, d.Logger, d.Metrics, d.Validator, sm.config.LoginStoreTimeout)
	sm.screenerService = NewScreenerService(d.Repositories, d.Publisher, d.Logger, d.Metrics, d.Validator, sm.config.ScreenerReuseWindow)
	sm.alertService = NewAlertService(d.Repositories, d.Broadcaster, d.Publisher, d.Logger, d.Metrics, d.Validator, sm.config.AlertFanoutLimit)
	sm.notificationService = NewNotificationService(d.Repositories, d.Logger)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully",
		"tenants", d.Registry.Names(),
		"fanout_limit", sm.config.AlertFanoutLimit)

	return nil
}

func (sm *serviceManager) Identity() IdentityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.identityService
}

func (sm *serviceManager) Screener() ScreenerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.screenerService
}

func (sm *serviceManager) Alert() AlertService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.alertService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repositories.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	var errs []error
	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
			errs = append(errs, err)
		}
	}
	if sm.deps.Repositories != nil {
		if err := sm.deps.Repositories.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
			errs = append(errs, err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return errors.Join(errs...)
}
