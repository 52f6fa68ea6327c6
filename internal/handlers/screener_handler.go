package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ScreenerHandler struct {
	BaseHandler
	screenerService services.ScreenerService
}

func NewScreenerHandler(screenerService services.ScreenerService, logger utils.Logger, production bool) *ScreenerHandler {
	return &ScreenerHandler{
		BaseHandler:     NewBaseHandler(logger, production),
		screenerService: screenerService,
	}
}

// GetCatalog lists the screeners that can be assigned
// @Summary Screener catalog
// @Tags screeners
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.ScreenerCatalogEntry
// @Router /screeners/catalog [get]
func (h *ScreenerHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.screenerService.Catalog())
}

// CreateInstance starts or assigns a screener
// @Summary Create screener instance
// @Description Students start a screener for themselves; staff assign one to a student of the tenant
// @Tags screeners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param screener body services.CreateScreenerRequest true "Screener type and target student"
// @Success 201 {object} models.ScreenerInstance
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /screeners/instances [post]
func (h *ScreenerHandler) CreateInstance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	var req services.CreateScreenerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating screener instance", "screener_type", req.ScreenerType, "user_id", actor.UserID)

	instance, err := h.screenerService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, instance)
}

// ListInstances lists screener instances
// @Summary List screener instances
// @Description Students see their own instances; staff must pass studentId
// @Tags screeners
// @Produce json
// @Security BearerAuth
// @Param studentId query int false "Student ID (required for staff)"
// @Param screenerType query string false "phq9 or gad7"
// @Param status query string false "assigned or completed"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ScreenerListResponse
// @Failure 400 {object} ErrorResponse
// @Router /screeners/instances [get]
func (h *ScreenerHandler) ListInstances(c *gin.Context) {
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

	req := services.ScreenerListRequest{
		StudentID: studentID,
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	if t := c.Query("screenerType"); t != "" {
		screenerType := models.ScreenerType(t)
		req.ScreenerType = &screenerType
	}
	if s := c.Query("status"); s != "" {
		status := models.ScreenerStatus(s)
		req.Status = &status
	}

	resp, err := h.screenerService.List(c.Request.Context(), req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetInstance returns one screener instance
// @Summary Get screener instance
// @Tags screeners
// @Produce json
// @Security BearerAuth
// @Param id path int true "Instance ID"
// @Success 200 {object} models.ScreenerInstance
// @Failure 404 {object} ErrorResponse
// @Router /screeners/instances/{id} [get]
func (h *ScreenerHandler) GetInstance(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	instance, err := h.screenerService.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instance)
}

// SubmitInstance submits responses and scores the screener
// @Summary Submit screener
// @Tags screeners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Instance ID"
// @Param responses body services.SubmitScreenerRequest true "Answers"
// @Success 200 {object} services.ScreenerResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /screeners/instances/{id}/submit [post]
func (h *ScreenerHandler) SubmitInstance(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	var req services.SubmitScreenerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting screener", "instance_id", id, "responses", len(req.Responses))

	result, err := h.screenerService.Submit(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResults downloads a student's completed screeners as a workbook
// @Summary Export screener results
// @Tags screeners
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param studentId query int true "Student ID"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /screeners/export [get]
func (h *ScreenerHandler) ExportResults(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		unauthorized(c, "user not authenticated")
		return
	}

	studentID, ok := h.parseUintQuery(c, "studentId")
	if !ok {
		return
	}
	if studentID == nil {
		h.handleServiceError(c, services.ValidationErrors{{Field: "studentId", Message: "is required", Rule: "required"}})
		return
	}

	h.LogRequest(c, "Exporting screener results", "student_id", *studentID)

	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.screenerService.ExportResults(c.Request.Context(), *studentID, actor, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("screeners-student-%d-%s.xlsx", *studentID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
