package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
)

const tenantNotIdentifiedMessage = "Tenant not identified, please log in again"

func tenantNotIdentified(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "TenantNotIdentified",
		Message: tenantNotIdentifiedMessage,
	})
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid email or password",
		})
		return
	}

	if errors.Is(err, services.ErrTenantNotIdentified) {
		tenantNotIdentified(c)
		return
	}

	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "ValidationError",
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var recent *services.RecentlyCompletedError
	if errors.As(err, &recent) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "AlreadyCompletedRecently",
			Message: "This screener was completed recently",
			Details: gin.H{
				"screenerType":   recent.ScreenerType,
				"completedAt":    recent.CompletedAt.Format(time.RFC3339),
				"nextEligibleAt": recent.NextEligibleAt.Format(time.RFC3339),
			},
		})
		return
	}

	if errors.Is(err, services.ErrAlreadyCompleted) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "AlreadyCompleted",
			Message: "Screener already completed",
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "Forbidden",
			Message: "Access denied",
			Details: gin.H{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	if errors.Is(err, services.ErrAlertNotActive) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "NotFound",
			Message: "Alert not found or already processed",
		})
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "NotFound",
			Message: notFoundMessage(err),
		})
		return
	}

	if errors.Is(err, services.ErrStoreUnavailable) {
		h.LogError(c, err, "Store unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "ServiceUnavailable",
			Message: "Service temporarily unavailable",
		})
		return
	}

	h.LogError(c, err, "Unhandled service error")
	resp := ErrorResponse{Error: "InternalServerError", Message: "Server error"}
	if !h.production {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrStudentNotFound):
		return "Student not found"
	case errors.Is(err, services.ErrScreenerNotFound):
		return "Screener not found"
	case errors.Is(err, services.ErrAlertNotFound):
		return "Alert not found"
	case errors.Is(err, services.ErrNotificationNotFound):
		return "Notification not found"
	default:
		return "Resource not found"
	}
}
