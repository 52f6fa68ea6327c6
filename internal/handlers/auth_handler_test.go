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

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	s := newTestServer(t)
	s.manager.identity.login = func(_ context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
		return nil, services.ErrInvalidCredentials
	}

	unknown := s.do(http.MethodPost, "/login", "", `{"email":"nobody@north.edu","password":"whatever"}`)
	wrong := s.do(http.MethodPost, "/login", "", `{"email":"stu@north.edu","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(unknown.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body.Error)
	assert.Nil(t, body.Details)
}

func TestLogin_Success(t *testing.T) {
	s := newTestServer(t)
	tenant := "north"
	s.manager.identity.login = func(_ context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
		assert.Equal(t, "stu@north.edu", req.Email)
		return &services.LoginResult{Token: "signed", User: services.LoginUser{
			ID: 4, Email: "stu@north.edu", Name: "Stu", Role: models.RoleStudent, TenantName: &tenant,
		}}, nil
	}

	w := s.do(http.MethodPost, "/login", "", `{"email":"stu@north.edu","password":"pw"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"signed","user":{
		"id":4,"email":"stu@north.edu","name":"Stu","role":"student","tenantName":"north"}}`, w.Body.String())
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/login", "", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request payload")
}

func TestLogin_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	s.manager.identity.login = func(context.Context, *services.LoginRequest) (*services.LoginResult, error) {
		return nil, services.ValidationErrors{{Field: "email", Message: "must be a valid email", Rule: "email"}}
	}

	w := s.do(http.MethodPost, "/login", "", `{"email":"nope","password":"pw"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ValidationError")
}

func TestRoutingInfo(t *testing.T) {
	s := newTestServer(t)

	t.Run("bound session", func(t *testing.T) {
		w := s.do(http.MethodGet, "/routing-info", s.token(t, 4, models.RoleStudent, "north"), "")

		require.Equal(t, http.StatusOK, w.Code)
		var info RoutingInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, "north", info.TenantName)
	})

	t.Run("session without tenant", func(t *testing.T) {
		w := s.do(http.MethodGet, "/routing-info", s.token(t, 1, models.RoleSuperAdmin, ""), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), tenantNotIdentifiedMessage)
	})

	t.Run("no token", func(t *testing.T) {
		w := s.do(http.MethodGet, "/routing-info", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
