package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

var errStoreDown = errors.New("connection refused")

// fakeStore is an in-memory store backing every repository of one database
type fakeStore struct {
	mu sync.Mutex

	name          string
	nextID        uint
	users         map[uint]*models.User
	bindings      map[uint]*models.TenantBinding
	screeners     map[uint]*models.ScreenerInstance
	alerts        map[uint]*models.EmergencyAlert
	screenings    []*models.SuicideRiskScreening
	notifications map[uint]*models.StaffNotification
	audits        []*models.AuditEvent

	lookupDelay      time.Duration
	lookupErr        error
	failNotifyFor    map[uint]bool
	failScreening    bool
	failAudit        bool
	failMarkComplete bool
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{
		name:          name,
		users:         make(map[uint]*models.User),
		bindings:      make(map[uint]*models.TenantBinding),
		screeners:     make(map[uint]*models.ScreenerInstance),
		alerts:        make(map[uint]*models.EmergencyAlert),
		notifications: make(map[uint]*models.StaffNotification),
		failNotifyFor: make(map[uint]bool),
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(t *testing.T, email, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id(), Email: email, PasswordHash: string(hash), Role: role, FullName: strings.Split(email, "@")[0]}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) bind(userID uint, tenant *string, legacyID *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[userID] = &models.TenantBinding{TenantName: tenant, LegacyTenantID: legacyID}
}

func (s *fakeStore) alertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func (s *fakeStore) notificationsFor(recipientID uint) []*models.StaffNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.StaffNotification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (s *fakeStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.audits))
	for i, a := range s.audits {
		out[i] = a.Action
	}
	return out
}

type fakeRepo struct{ s *fakeStore }

func (r fakeRepo) User() repositories.UserRepository                 { return fakeUsers(r) }
func (r fakeRepo) Membership() repositories.MembershipRepository     { return fakeMemberships(r) }
func (r fakeRepo) Screener() repositories.ScreenerRepository         { return fakeScreeners(r) }
func (r fakeRepo) Alert() repositories.AlertRepository               { return fakeAlerts(r) }
func (r fakeRepo) Notification() repositories.NotificationRepository { return fakeNotifications(r) }
func (r fakeRepo) Audit() repositories.AuditRepository               { return fakeAudits(r) }
func (r fakeRepo) Ping(context.Context) error                        { return nil }

func (r fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

type fakeUsers fakeRepo

func (r fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.s.lookupDelay > 0 {
		select {
		case <-time.After(r.s.lookupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.s.lookupErr != nil {
		return nil, r.s.lookupErr
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeUsers) ListStaff(ctx context.Context, limit int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var staff []*models.User
	for _, u := range r.s.users {
		if u.Role.IsStaff() {
			copied := *u
			staff = append(staff, &copied)
		}
	}
	sort.Slice(staff, func(i, j int) bool {
		pi, pj := staff[i].Role.StaffPriority(), staff[j].Role.StaffPriority()
		if pi != pj {
			return pi < pj
		}
		return staff[i].ID < staff[j].ID
	})
	if limit > 0 && len(staff) > limit {
		staff = staff[:limit]
	}
	return staff, nil
}

type fakeMemberships fakeRepo

func (r fakeMemberships) GetBinding(ctx context.Context, userID uint) (*models.TenantBinding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bindings[userID]; ok {
		return b, nil
	}
	return &models.TenantBinding{}, nil
}

type fakeScreeners fakeRepo

func (r fakeScreeners) Create(ctx context.Context, instance *models.ScreenerInstance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	instance.ID = r.s.id()
	instance.CreatedAt = time.Now()
	copied := *instance
	r.s.screeners[instance.ID] = &copied
	return nil
}

func (r fakeScreeners) GetByID(ctx context.Context, id uint) (*models.ScreenerInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i, ok := r.s.screeners[id]; ok {
		copied := *i
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeScreeners) List(ctx context.Context, filters repositories.ScreenerFilters) ([]*models.ScreenerInstance, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.ScreenerInstance
	for _, i := range r.s.screeners {
		if filters.StudentID != nil && i.StudentID != *filters.StudentID {
			continue
		}
		if filters.ScreenerType != nil && i.ScreenerType != *filters.ScreenerType {
			continue
		}
		if filters.Status != nil && i.Status != *filters.Status {
			continue
		}
		copied := *i
		out = append(out, &copied)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, int64(len(out)), nil
}

func (r fakeScreeners) LatestCompleted(ctx context.Context, studentID uint, screenerType models.ScreenerType) (*models.ScreenerInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *models.ScreenerInstance
	for _, i := range r.s.screeners {
		if i.StudentID != studentID || i.ScreenerType != screenerType || i.Status != models.ScreenerCompleted {
			continue
		}
		if latest == nil || i.CompletedAt.After(*latest.CompletedAt) {
			latest = i
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r fakeScreeners) ReplaceResponses(ctx context.Context, instanceID uint, responses []models.ScreenerResponse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.screeners[instanceID]
	if !ok {
		return repositories.ErrNotFound
	}
	i.Responses = append([]models.ScreenerResponse(nil), responses...)
	return nil
}

func (r fakeScreeners) MarkCompleted(ctx context.Context, instanceID uint, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failMarkComplete {
		return false, errStoreDown
	}
	i, ok := r.s.screeners[instanceID]
	if !ok || i.Status != models.ScreenerAssigned {
		return false, nil
	}
	i.Status = models.ScreenerCompleted
	i.CompletedAt = &at
	return true, nil
}

func (r fakeScreeners) CreateScore(ctx context.Context, score *models.ScreenerScore) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.screeners[score.InstanceID]
	if !ok {
		return repositories.ErrNotFound
	}
	score.ID = r.s.id()
	copied := *score
	i.Score = &copied
	return nil
}

type fakeAlerts fakeRepo

func (r fakeAlerts) Create(ctx context.Context, alert *models.EmergencyAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	alert.ID = r.s.id()
	alert.CreatedAt = time.Now()
	copied := *alert
	r.s.alerts[alert.ID] = &copied
	return nil
}

func (r fakeAlerts) GetByID(ctx context.Context, id uint) (*models.EmergencyAlert, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.alerts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeAlerts) List(ctx context.Context, filters repositories.AlertFilters) ([]*models.EmergencyAlert, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.EmergencyAlert
	for _, a := range r.s.alerts {
		if filters.StudentID != nil && a.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r fakeAlerts) Transition(ctx context.Context, id uint, t repositories.AlertTransition) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.alerts[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, from := range t.From {
		if a.Status == from {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	a.Status = t.To
	at, actor := t.At, t.ActorID
	switch t.To {
	case models.AlertAcknowledged:
		a.AcknowledgedAt, a.AcknowledgedBy = &at, &actor
	case models.AlertResolved:
		a.ResolvedAt, a.ResolvedBy, a.ResolutionNotes = &at, &actor, t.Notes
	}
	return true, nil
}

func (r fakeAlerts) CreateRiskScreening(ctx context.Context, screening *models.SuicideRiskScreening) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failScreening {
		return errStoreDown
	}
	screening.ID = r.s.id()
	r.s.screenings = append(r.s.screenings, screening)
	return nil
}

type fakeNotifications fakeRepo

func (r fakeNotifications) Create(ctx context.Context, n *models.StaffNotification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNotifyFor[n.RecipientID] {
		return errStoreDown
	}
	n.ID = r.s.id()
	copied := *n
	r.s.notifications[n.ID] = &copied
	return nil
}

func (r fakeNotifications) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.StaffNotification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.StaffNotification
	for _, n := range r.s.notifications {
		if n.RecipientID != filters.RecipientID {
			continue
		}
		if filters.UnreadOnly && n.ReadAt != nil {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r fakeNotifications) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, nil
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return true, nil
}

type fakeAudits fakeRepo

func (r fakeAudits) Record(ctx context.Context, event *models.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAudit {
		return errStoreDown
	}
	r.s.audits = append(r.s.audits, event)
	return nil
}

// fakeProvider serves a master store and named tenant stores
type fakeProvider struct {
	master  *fakeStore
	tenants map[string]*fakeStore
}

func (p *fakeProvider) Master() repositories.Repository { return fakeRepo{p.master} }

func (p *fakeProvider) Tenant(name string) (repositories.Repository, error) {
	s, ok := p.tenants[name]
	if !ok {
		return nil, tenancy.ErrTenantNotFound
	}
	return fakeRepo{s}, nil
}

func (p *fakeProvider) Initialize() error                     { return nil }
func (p *fakeProvider) HealthCheck(ctx context.Context) error { return nil }
func (p *fakeProvider) Shutdown(ctx context.Context) error    { return nil }

// testEnv wires services against fakes for one master and the given tenants
type testEnv struct {
	provider  *fakeProvider
	registry  *tenancy.Registry
	metrics   *metrics.Metrics
	publisher *events.MockEventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

type tenantDef struct {
	name     string
	legacyID *int
}

func newTestEnv(t *testing.T, tenants ...tenantDef) *testEnv {
	t.Helper()

	provider := &fakeProvider{master: newFakeStore(tenancy.MasterName), tenants: make(map[string]*fakeStore)}
	pools := make([]*tenancy.Pool, 0, len(tenants))
	for _, def := range tenants {
		provider.tenants[def.name] = newFakeStore(def.name)
		pools = append(pools, &tenancy.Pool{Name: def.name, LegacyID: def.legacyID, DB: &gorm.DB{}})
	}

	registry, err := tenancy.NewRegistry(&tenancy.Pool{Name: tenancy.MasterName, DB: &gorm.DB{}}, pools)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		provider:  provider,
		registry:  registry,
		metrics:   metrics.New(),
		publisher: events.NewMockEventPublisher(logger),
		logger:    logger,
		validator: validator.New(),
	}
}

func (e *testEnv) tenant(name string) *fakeStore {
	return e.provider.tenants[name]
}

// ctxFor routes a context to a tenant the way the tenant middleware does
func (e *testEnv) ctxFor(t *testing.T, name string) context.Context {
	t.Helper()
	pool, err := e.registry.Pool(name)
	require.NoError(t, err)
	return tenancy.WithPool(context.Background(), pool)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func uintPtr(v uint) *uint    { return &v }

func actorOf(u *models.User) Actor { return Actor{UserID: u.ID, Role: u.Role} }
