package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries what every handler needs: a logger and whether
// error details may be shown to clients
type BaseHandler struct {
	logger     utils.Logger
	production bool
}

func NewBaseHandler(logger utils.Logger, production bool) BaseHandler {
	return BaseHandler{logger: logger, production: production}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, append(args, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "BadRequest",
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

// parseUintQuery returns nil when the query parameter is absent. A present but
// malformed value writes a 400 and reports ok=false.
func (h *BaseHandler) parseUintQuery(c *gin.Context, param string) (*uint, bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "BadRequest",
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return nil, false
	}
	out := uint(v)
	return &out, true
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// bindJSON writes the 400 itself, callers just return on false
func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "BadRequest",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}
