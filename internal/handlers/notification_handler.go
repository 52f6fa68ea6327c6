package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger, production bool) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger, production),
		notificationService: notificationService,
	}
}

// ListNotifications returns the caller's staff notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.NotificationListResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}
	unreadOnly := c.Query("unread") == "true"

	resp, err := h.notificationService.List(c.Request.Context(), actor, unreadOnly, size, (page-1)*size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkRead marks one notification as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}
