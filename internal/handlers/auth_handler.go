package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	identityService services.IdentityService
}

func NewAuthHandler(identityService services.IdentityService, logger utils.Logger, production bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:     NewBaseHandler(logger, production),
		identityService: identityService,
	}
}

// RoutingInfo is the tenant a session is bound to
type RoutingInfo struct {
	TenantName string `json:"tenantName"`
	TenantID   *int   `json:"tenantId"`
}

// Login resolves credentials across every store and issues a session token
// @Summary Log in
// @Description Checks the credentials against the master store and every tenant store and returns a signed session token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "Email and password"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	// the email is logged, never the password
	h.LogRequest(c, "Login attempt", "email", req.Email)

	result, err := h.identityService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RoutingInfo reports the tenant the current session is routed to
// @Summary Routing info
// @Description Returns the tenant name and legacy id carried by the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} RoutingInfo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /routing-info [get]
func (h *AuthHandler) RoutingInfo(c *gin.Context) {
	claims, ok := claimsFromGin(c)
	if !ok || !claims.HasTenant() {
		tenantNotIdentified(c)
		return
	}

	c.JSON(http.StatusOK, RoutingInfo{
		TenantName: *claims.TenantName,
		TenantID:   claims.TenantID,
	})
}
