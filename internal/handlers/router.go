package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

const serviceName = "wellbeing-service"

type HandlerManager struct {
	serviceManager      services.ServiceManager
	metrics             *metrics.Metrics
	authHandler         *AuthHandler
	screenerHandler     *ScreenerHandler
	alertHandler        *AlertHandler
	notificationHandler *NotificationHandler
	authMiddleware      *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	issuer *auth.Issuer,
	registry *tenancy.Registry,
	m *metrics.Metrics,
	logger utils.Logger,
	production bool,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:      serviceManager,
		metrics:             m,
		authHandler:         NewAuthHandler(serviceManager.Identity(), logger, production),
		screenerHandler:     NewScreenerHandler(serviceManager.Screener(), logger, production),
		alertHandler:        NewAlertHandler(serviceManager.Alert(), logger, production),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger, production),
		authMiddleware:      NewAuthMiddleware(issuer, registry, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staff := hm.authMiddleware.RequireRole(models.StaffRoles...)
	student := hm.authMiddleware.RequireRole(models.RoleStudent)

	router.POST("/login", hm.authHandler.Login)

	authed := router.Group("")
	authed.Use(hm.authMiddleware.Authenticate())
	authed.GET("/routing-info", hm.authHandler.RoutingInfo)
	authed.GET("/screeners/catalog", hm.screenerHandler.GetCatalog)

	// everything below reads or writes a tenant store
	tenant := authed.Group("")
	tenant.Use(hm.authMiddleware.Tenant())
	{
		screeners := tenant.Group("/screeners")
		{
			screeners.POST("/instances", hm.screenerHandler.CreateInstance)
			screeners.GET("/instances", hm.screenerHandler.ListInstances)
			screeners.GET("/instances/:id", hm.screenerHandler.GetInstance)
			screeners.POST("/instances/:id/submit", student, hm.screenerHandler.SubmitInstance)
			screeners.GET("/export", staff, hm.screenerHandler.ExportResults)
		}

		tenant.POST("/emergency-alert", student, hm.alertHandler.CreateAlert)
		tenant.GET("/emergency-alerts", hm.alertHandler.ListAlerts)
		tenant.PUT("/emergency-alert/:id/acknowledge", staff, hm.alertHandler.AcknowledgeAlert)
		tenant.PUT("/emergency-alert/:id/resolve", staff, hm.alertHandler.ResolveAlert)
		tenant.PUT("/emergency-alert/:id/cancel", hm.alertHandler.CancelAlert)

		notifications := tenant.Group("/notifications", staff)
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.PUT("/:id/read", hm.notificationHandler.MarkRead)
		}
	}

	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
