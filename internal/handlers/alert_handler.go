package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

type AlertHandler struct {
	BaseHandler
	alertService services.AlertService
}

func NewAlertHandler(alertService services.AlertService, logger utils.Logger, production bool) *AlertHandler {
	return &AlertHandler{
		BaseHandler:  NewBaseHandler(logger, production),
		alertService: alertService,
	}
}

// CreateAlert raises an emergency alert for the calling student
// @Summary Raise emergency alert
// @Description Persists the alert, scores the optional risk screening, escalates critical risk and notifies staff
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param alert body services.CreateAlertRequest true "Alert data"
// @Success 201 {object} services.AlertResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /emergency-alert [post]
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	var req services.CreateAlertRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating emergency alert", "alert_type", req.AlertType, "user_id", actor.UserID)

	resp, err := h.alertService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListAlerts lists emergency alerts
// @Summary List emergency alerts
// @Description Staff see every alert of the tenant, students see their own
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, acknowledged, resolved or cancelled"
// @Param studentId query int false "Filter by student (staff only)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.AlertListResponse
// @Router /emergency-alerts [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	studentID, ok := h.parseUintQuery(c, "studentId")
	if !ok {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	req := services.AlertListRequest{
		StudentID: studentID,
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	if s := c.Query("status"); s != "" {
		status := models.AlertStatus(s)
		req.Status = &status
	}

	resp, err := h.alertService.List(c.Request.Context(), req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AcknowledgeAlert moves an active alert to acknowledged
// @Summary Acknowledge alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alert ID"
// @Success 200 {object} models.EmergencyAlert
// @Failure 404 {object} ErrorResponse
// @Router /emergency-alert/{id}/acknowledge [put]
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	h.LogRequest(c, "Acknowledging alert", "alert_id", id)

	alert, err := h.alertService.Acknowledge(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

// ResolveAlert closes an active or acknowledged alert
// @Summary Resolve alert
// @Tags alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alert ID"
// @Param notes body services.ResolveAlertRequest false "Resolution notes"
// @Success 200 {object} models.EmergencyAlert
// @Failure 404 {object} ErrorResponse
// @Router /emergency-alert/{id}/resolve [put]
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	// the body is optional, notes default to empty
	var req services.ResolveAlertRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Resolving alert", "alert_id", id)

	alert, err := h.alertService.Resolve(c.Request.Context(), id, req.ResolutionNotes, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

// CancelAlert withdraws an active alert
// @Summary Cancel alert
// @Description The owning student or any staff member can cancel an active alert
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alert ID"
// @Success 200 {object} models.EmergencyAlert
// @Failure 404 {object} ErrorResponse
// @Router /emergency-alert/{id}/cancel [put]
func (h *AlertHandler) CancelAlert(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	h.LogRequest(c, "Cancelling alert", "alert_id", id)

	alert, err := h.alertService.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}
