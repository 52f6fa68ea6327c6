package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
)

func TestAlertHandler_Create(t *testing.T) {
	s := newTestServer(t)
	s.manager.alert.create = func(_ context.Context, req *services.CreateAlertRequest, actor services.Actor) (*services.AlertResponse, error) {
		assert.Equal(t, models.AlertEmergency, req.AlertType)
		require.Len(t, req.SuicideRiskScreening, 4)
		for _, q := range req.SuicideRiskScreening {
			assert.Equal(t, "yes", q.Answer)
		}
		return &services.AlertResponse{
			Alert:         &models.EmergencyAlert{ID: 1, StudentID: actor.UserID, Status: models.AlertActive},
			Escalation:    &models.EmergencyAlert{ID: 2, StudentID: actor.UserID, Status: models.AlertActive},
			NotifiedStaff: 3,
		}, nil
	}

	body := `{"alertType":"emergency","message":"help","suicideRiskScreening":[
		{"question":"q1","answer":"yes"},{"question":"q2","answer":"yes"},
		{"question":"q3","answer":"yes"},{"question":"q4","answer":"yes"}]}`
	w := s.do(http.MethodPost, "/emergency-alert", s.token(t, 4, models.RoleStudent, "north"), body)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp services.AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.NotifiedStaff)
	require.NotNil(t, resp.Escalation)
	assert.Equal(t, uint(2), resp.Escalation.ID)
}

func TestAlertHandler_AcknowledgeAlreadyProcessed(t *testing.T) {
	s := newTestServer(t)
	s.manager.alert.ack = func(context.Context, uint, services.Actor) (*models.EmergencyAlert, error) {
		return nil, services.ErrAlertNotActive
	}

	w := s.do(http.MethodPut, "/emergency-alert/3/acknowledge", s.token(t, 2, models.RoleExpert, "north"), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "already processed")
}

func TestAlertHandler_ResolveNotesAreOptional(t *testing.T) {
	s := newTestServer(t)
	var gotNotes []string
	s.manager.alert.resolve = func(_ context.Context, id uint, notes string, _ services.Actor) (*models.EmergencyAlert, error) {
		gotNotes = append(gotNotes, notes)
		return &models.EmergencyAlert{ID: id, Status: models.AlertResolved}, nil
	}
	token := s.token(t, 2, models.RoleAdmin, "north")

	w := s.do(http.MethodPut, "/emergency-alert/3/resolve", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPut, "/emergency-alert/3/resolve", token, `{"resolutionNotes":"called parents"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"", "called parents"}, gotNotes)
}

func TestAlertHandler_CancelAndList(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 4, models.RoleStudent, "north")

	w := s.do(http.MethodPut, "/emergency-alert/8/cancel", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled"`)

	w = s.do(http.MethodGet, "/emergency-alerts?status=active", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alerts":[],"total":0}`, w.Body.String())
}
