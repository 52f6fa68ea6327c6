package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

const (
	claimsContextKey = "claims"
	userIDContextKey = "user_id"
	roleContextKey   = "user_role"
	tenantContextKey = "tenant_name"
)

// AuthMiddleware verifies session tokens and routes requests to their tenant store
type AuthMiddleware struct {
	issuer   *auth.Issuer
	registry *tenancy.Registry
	logger   utils.Logger
}

func NewAuthMiddleware(issuer *auth.Issuer, registry *tenancy.Registry, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, registry: registry, logger: logger}
}

// Authenticate requires a valid bearer token and stores its claims in the gin
// and request contexts
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := am.issuer.Verify(tokenParts[1])
		if err != nil {
			utils.GetLogger(c, am.logger).Debug("Rejected session token", "error", err)
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(claimsContextKey, claims)
		c.Set(userIDContextKey, claims.UserID)
		c.Set(roleContextKey, claims.Role)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// Tenant attaches the pool named by the session claims. It must run after
// Authenticate; a missing or unknown tenant is rejected before any handler runs.
func (am *AuthMiddleware) Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromGin(c)
		if !ok || !claims.HasTenant() {
			tenantNotIdentified(c)
			return
		}

		pool, err := am.registry.Pool(*claims.TenantName)
		if err != nil {
			if !errors.Is(err, tenancy.ErrTenantNotFound) {
				utils.GetLogger(c, am.logger).Error("Tenant lookup failed", "tenant", *claims.TenantName, "error", err)
			}
			tenantNotIdentified(c)
			return
		}

		c.Set(tenantContextKey, pool.Name)
		c.Request = c.Request.WithContext(tenancy.WithPool(c.Request.Context(), pool))

		c.Next()
	}
}

// RequireRole lets through only the listed roles
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(roleContextKey)
		if !ok {
			forbidden(c, "user role not found in context")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		forbidden(c, fmt.Sprintf("insufficient permissions, required role: %v", roles))
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "Unauthorized",
		Message: msg,
	})
}

func forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
		Error:   "Forbidden",
		Message: msg,
	})
}

func claimsFromGin(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// actorFromContext builds the service actor from verified claims
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	claims, ok := claimsFromGin(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: claims.UserID, Role: claims.Role}, true
}
