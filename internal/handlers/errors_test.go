package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

func serviceErrorResponse(t *testing.T, production bool, err error) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), production)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleServiceError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantError string
	}{
		{name: "invalid credentials", err: services.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantError: "Unauthorized"},
		{name: "tenant not identified", err: services.ErrTenantNotIdentified, wantCode: http.StatusBadRequest, wantError: "TenantNotIdentified"},
		{name: "validation", err: services.ValidationErrors{{Field: "studentId", Message: "is required"}}, wantCode: http.StatusBadRequest, wantError: "ValidationError"},
		{name: "student not found", err: services.ErrStudentNotFound, wantCode: http.StatusNotFound, wantError: "NotFound"},
		{name: "wrapped screener not found", err: fmt.Errorf("load: %w", services.ErrScreenerNotFound), wantCode: http.StatusNotFound, wantError: "NotFound"},
		{name: "alert already processed", err: services.ErrAlertNotActive, wantCode: http.StatusNotFound, wantError: "NotFound"},
		{name: "already completed", err: services.ErrAlreadyCompleted, wantCode: http.StatusConflict, wantError: "AlreadyCompleted"},
		{name: "permission", err: services.NewPermissionError(3, "alert", "create", "students only"), wantCode: http.StatusForbidden, wantError: "Forbidden"},
		{name: "store unavailable", err: fmt.Errorf("list: %w", services.ErrStoreUnavailable), wantCode: http.StatusServiceUnavailable, wantError: "ServiceUnavailable"},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantError: "InternalServerError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serviceErrorResponse(t, true, tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestHandleServiceError_RecentlyCompleted(t *testing.T) {
	completed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err := &services.RecentlyCompletedError{
		ScreenerType:   "phq9",
		CompletedAt:    completed,
		NextEligibleAt: completed.Add(14 * 24 * time.Hour),
	}

	code, body := serviceErrorResponse(t, true, err)

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AlreadyCompletedRecently", body["error"])
	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "phq9", details["screenerType"])
	assert.Equal(t, "2026-03-01T09:00:00Z", details["completedAt"])
	assert.Equal(t, "2026-03-15T09:00:00Z", details["nextEligibleAt"])
}

func TestHandleServiceError_DetailsOnlyOutsideProduction(t *testing.T) {
	_, prod := serviceErrorResponse(t, true, errors.New("pq: relation missing"))
	_, dev := serviceErrorResponse(t, false, errors.New("pq: relation missing"))

	assert.Equal(t, "Server error", prod["message"])
	assert.NotContains(t, prod, "details")
	assert.Equal(t, "pq: relation missing", dev["details"])
}
