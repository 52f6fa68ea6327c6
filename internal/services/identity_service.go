package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// equalizerHash is compared against when no account matched, so unknown emails
// cost the same bcrypt work as wrong passwords.
func equalizerHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type identityService struct {
	repos        repositories.Provider
	registry     *tenancy.Registry
	issuer       *auth.Issuer
	logger       *slog.Logger
	metrics      *metrics.Metrics
	validator    *validator.Validator
	storeTimeout time.Duration
}

func NewIdentityService(
	repos repositories.Provider,
	registry *tenancy.Registry,
	issuer *auth.Issuer,
	logger *slog.Logger,
	m *metrics.Metrics,
	v *validator.Validator,
	storeTimeout time.Duration,
) IdentityService {
	return &identityService{
		repos:        repos,
		registry:     registry,
		issuer:       issuer,
		logger:       logger,
		metrics:      m,
		validator:    v,
		storeTimeout: storeTimeout,
	}
}

// storeProbe is one credential lookup target; index 0 is always the master store
type storeProbe struct {
	name string
	repo repositories.Repository
}

func (s *identityService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	start := time.Now()
	defer func() { s.metrics.LoginDuration.Observe(time.Since(start).Seconds()) }()

	if err := s.validator.Validate(req); err != nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	probes := s.probes()
	matches := s.lookupAll(ctx, probes, email)

	selected, store := s.selectMatch(probes, matches, email)

	hash := equalizerHash()
	if selected != nil {
		hash = []byte(selected.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil || selected == nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.logger.Info("Login rejected", "matched", selected != nil)
		return nil, ErrInvalidCredentials
	}

	claims := auth.Claims{
		UserID: selected.ID,
		Email:  selected.Email,
		Role:   selected.Role,
	}

	if store == tenancy.MasterName {
		tenant, err := s.resolveMasterTenant(ctx, selected)
		if err != nil {
			s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}
		if tenant != "" {
			claims.TenantName = &tenant
		}
	} else {
		tenant := store
		claims.TenantName = &tenant
	}
	if claims.TenantName != nil {
		claims.TenantID = s.registry.LegacyID(*claims.TenantName)
	}

	token, err := s.issuer.Issue(claims)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("Login succeeded", "user_id", selected.ID, "store", store, "role", selected.Role)

	return &LoginResult{
		Token: token,
		User: LoginUser{
			ID:         selected.ID,
			Email:      selected.Email,
			Name:       selected.FullName,
			Role:       selected.Role,
			TenantName: claims.TenantName,
			TenantID:   claims.TenantID,
		},
	}, nil
}

func (s *identityService) probes() []storeProbe {
	probes := []storeProbe{{name: tenancy.MasterName, repo: s.repos.Master()}}
	for _, name := range s.registry.Names() {
		repo, err := s.repos.Tenant(name)
		if err != nil {
			s.logger.Error("Tenant registered without repository", "tenant", name, "error", err)
			continue
		}
		probes = append(probes, storeProbe{name: name, repo: repo})
	}
	return probes
}

// lookupAll queries every store concurrently. Each lookup has its own timeout
// and the join gives up at the same deadline; results that arrive after it are
// dropped. The returned slice is indexed like probes.
func (s *identityService) lookupAll(ctx context.Context, probes []storeProbe, email string) []*models.User {
	joinCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		closed  bool
		results = make([]*models.User, len(probes))
		g       errgroup.Group
	)

	for i, probe := range probes {
		g.Go(func() error {
			probeCtx, probeCancel := context.WithTimeout(joinCtx, s.storeTimeout)
			defer probeCancel()

			user, err := probe.repo.User().GetByEmail(probeCtx, email)
			outcome := s.classifyProbe(probeCtx, probe.name, err)
			s.metrics.StoreProbes.WithLabelValues(probe.name, outcome).Inc()
			if outcome != metrics.OutcomeMatch {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if !closed {
				results[i] = user
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-joinCtx.Done():
		s.logger.Warn("Login lookup deadline reached, ignoring slow stores", "timeout", s.storeTimeout)
	}

	mu.Lock()
	defer mu.Unlock()
	closed = true
	snapshot := make([]*models.User, len(results))
	copy(snapshot, results)
	return snapshot
}

func (s *identityService) classifyProbe(ctx context.Context, store string, err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeMatch
	case repositories.IsNotFoundError(err):
		return metrics.OutcomeMiss
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.logger.Warn("Store lookup timed out", "store", store)
		return metrics.OutcomeTimeout
	default:
		s.logger.Warn("Store lookup failed", "store", store, "error", err)
		return metrics.OutcomeError
	}
}

// selectMatch prefers the master store, then the first tenant in registry order
func (s *identityService) selectMatch(probes []storeProbe, matches []*models.User, email string) (*models.User, string) {
	if len(matches) > 0 && matches[0] != nil {
		return matches[0], probes[0].name
	}

	var selected *models.User
	var store string
	var matchedStores []string
	for i := 1; i < len(matches); i++ {
		if matches[i] == nil {
			continue
		}
		matchedStores = append(matchedStores, probes[i].name)
		if selected == nil {
			selected, store = matches[i], probes[i].name
		}
	}

	if len(matchedStores) > 1 {
		s.metrics.AmbiguousLogins.Inc()
		s.logger.Warn("Email registered in several tenant stores, using first",
			"stores", matchedStores,
			"selected", store)
	}

	return selected, store
}

// resolveMasterTenant maps a master user's membership to a registered tenant
// name. An empty result means the user has no tenant binding.
func (s *identityService) resolveMasterTenant(ctx context.Context, user *models.User) (string, error) {
	if user.Role == models.RoleSuperAdmin {
		return "", nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	binding, err := s.repos.Master().Membership().GetBinding(lookupCtx, user.ID)
	if err != nil {
		s.logger.Error("Failed to resolve tenant membership", "user_id", user.ID, "error", err)
		return "", storeError("resolve membership", err)
	}
	if !binding.Bound() {
		return "", nil
	}

	if binding.TenantName != nil && *binding.TenantName != "" {
		if _, err := s.registry.Pool(*binding.TenantName); err == nil {
			return *binding.TenantName, nil
		}
		s.logger.Warn("Membership names an unregistered tenant", "user_id", user.ID, "tenant", *binding.TenantName)
	}

	if binding.LegacyTenantID != nil {
		if name, ok := s.registry.ResolveLegacyTenantID(*binding.LegacyTenantID); ok {
			return name, nil
		}
		s.logger.Warn("Membership legacy tenant id is not registered", "user_id", user.ID, "legacy_id", *binding.LegacyTenantID)
	}

	return "", nil
}
