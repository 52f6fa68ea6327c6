package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

type stubIdentity struct {
	login func(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error)
}

func (s *stubIdentity) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	return s.login(ctx, req)
}

type stubScreener struct {
	create func(ctx context.Context, req *services.CreateScreenerRequest, actor services.Actor) (*models.ScreenerInstance, error)
	submit func(ctx context.Context, id uint, req *services.SubmitScreenerRequest, actor services.Actor) (*services.ScreenerResultResponse, error)
	list   func(ctx context.Context, req services.ScreenerListRequest, actor services.Actor) (*services.ScreenerListResponse, error)
	export func(ctx context.Context, studentID uint, actor services.Actor, w io.Writer) error
}

func (s *stubScreener) Catalog() []services.ScreenerCatalogEntry {
	return services.ScreenerCatalog()
}

func (s *stubScreener) Create(ctx context.Context, req *services.CreateScreenerRequest, actor services.Actor) (*models.ScreenerInstance, error) {
	return s.create(ctx, req, actor)
}

func (s *stubScreener) Submit(ctx context.Context, id uint, req *services.SubmitScreenerRequest, actor services.Actor) (*services.ScreenerResultResponse, error) {
	return s.submit(ctx, id, req, actor)
}

func (s *stubScreener) Get(ctx context.Context, id uint, actor services.Actor) (*models.ScreenerInstance, error) {
	return nil, services.ErrScreenerNotFound
}

func (s *stubScreener) List(ctx context.Context, req services.ScreenerListRequest, actor services.Actor) (*services.ScreenerListResponse, error) {
	return s.list(ctx, req, actor)
}

func (s *stubScreener) ExportResults(ctx context.Context, studentID uint, actor services.Actor, w io.Writer) error {
	return s.export(ctx, studentID, actor, w)
}

type stubAlert struct {
	create  func(ctx context.Context, req *services.CreateAlertRequest, actor services.Actor) (*services.AlertResponse, error)
	resolve func(ctx context.Context, id uint, notes string, actor services.Actor) (*models.EmergencyAlert, error)
	ack     func(ctx context.Context, id uint, actor services.Actor) (*models.EmergencyAlert, error)
}

func (s *stubAlert) Create(ctx context.Context, req *services.CreateAlertRequest, actor services.Actor) (*services.AlertResponse, error) {
	return s.create(ctx, req, actor)
}

func (s *stubAlert) Acknowledge(ctx context.Context, id uint, actor services.Actor) (*models.EmergencyAlert, error) {
	return s.ack(ctx, id, actor)
}

func (s *stubAlert) Resolve(ctx context.Context, id uint, notes string, actor services.Actor) (*models.EmergencyAlert, error) {
	return s.resolve(ctx, id, notes, actor)
}

func (s *stubAlert) Cancel(ctx context.Context, id uint, actor services.Actor) (*models.EmergencyAlert, error) {
	return &models.EmergencyAlert{ID: id, Status: models.AlertCancelled}, nil
}

func (s *stubAlert) List(ctx context.Context, req services.AlertListRequest, actor services.Actor) (*services.AlertListResponse, error) {
	return &services.AlertListResponse{Alerts: []*models.EmergencyAlert{}}, nil
}

type stubNotification struct{}

func (stubNotification) List(ctx context.Context, actor services.Actor, unreadOnly bool, limit, offset int) (*services.NotificationListResponse, error) {
	return &services.NotificationListResponse{Notifications: []*models.StaffNotification{}}, nil
}

func (stubNotification) MarkRead(ctx context.Context, id uint, actor services.Actor) error {
	if id != 1 {
		return services.ErrNotificationNotFound
	}
	return nil
}

type stubManager struct {
	identity *stubIdentity
	screener *stubScreener
	alert    *stubAlert
	healthy  error
}

func (m *stubManager) Identity() services.IdentityService         { return m.identity }
func (m *stubManager) Screener() services.ScreenerService         { return m.screener }
func (m *stubManager) Alert() services.AlertService               { return m.alert }
func (m *stubManager) Notification() services.NotificationService { return stubNotification{} }
func (m *stubManager) Initialize(ctx context.Context) error       { return nil }
func (m *stubManager) HealthCheck(ctx context.Context) error      { return m.healthy }
func (m *stubManager) Shutdown(ctx context.Context) error         { return nil }

var errUnexpectedCall = errors.New("unexpected call")

type testServer struct {
	router  *gin.Engine
	issuer  *auth.Issuer
	manager *stubManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	legacy := 7
	registry, err := tenancy.NewRegistry(
		&tenancy.Pool{Name: tenancy.MasterName, DB: &gorm.DB{}},
		[]*tenancy.Pool{{Name: "north", LegacyID: &legacy, DB: &gorm.DB{}}},
	)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("handler-test-key", time.Hour)
	require.NoError(t, err)

	manager := &stubManager{
		identity: &stubIdentity{login: func(context.Context, *services.LoginRequest) (*services.LoginResult, error) {
			return nil, errUnexpectedCall
		}},
		screener: &stubScreener{},
		alert:    &stubAlert{},
	}

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := gin.New()
	m := metrics.New()
	SetupMiddleware(router, logger, m)
	NewHandlerManager(manager, issuer, registry, m, logger, true).SetupRoutes(router)

	return &testServer{router: router, issuer: issuer, manager: manager}
}

func (s *testServer) token(t *testing.T, userID uint, role models.UserRole, tenant string) string {
	t.Helper()
	claims := auth.Claims{UserID: userID, Email: "user@example.edu", Role: role}
	if tenant != "" {
		claims.TenantName = &tenant
	}
	tok, err := s.issuer.Issue(claims)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
