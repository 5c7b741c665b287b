package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// shiftHandler handles HTTP requests related to the time clock.
type shiftHandler struct {
	shiftService portssvc.ShiftSvcFacade
}

// newShiftHandler creates a new shiftHandler.
func newShiftHandler(ss portssvc.ShiftSvcFacade) *shiftHandler {
	return &shiftHandler{shiftService: ss}
}

// registerShiftRoutes registers time clock routes.
func registerShiftRoutes(rg *gin.RouterGroup, shiftService portssvc.ShiftSvcFacade) {
	h := newShiftHandler(shiftService)

	rg.POST("/shifts", h.clockIn)
	rg.GET("/on-duty", h.listOnDuty)
	rg.POST("/employees/:employeeID/clock-out", h.clockOut)
	rg.GET("/employees/:employeeID/shifts", h.listShifts)
	rg.GET("/employees/:employeeID/open-shift", h.getOpenShift)
}

// clockIn godoc
// @Summary Clock an employee in
// @Description Opens a shift for an employee. An employee can only have one open shift. Staff can clock themselves in.
// @Tags shifts
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   shift body dto.ClockInRequest true "Shift details"
// @Success 201 {object} dto.ShiftResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Employee not found"
// @Failure 409 {object} map[string]string "Employee already has an open shift"
// @Security BearerAuth
// @Router /locations/{locationID}/shifts [post]
func (h *shiftHandler) clockIn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ClockIn", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if !canActForEmployee(c, req.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	shift, err := h.shiftService.ClockIn(c.Request.Context(), locationID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to clock in", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clock in"})
		}
		return
	}

	logger.Info("Employee clocked in",
		slog.String("shift_id", shift.ShiftID),
		slog.String("employee_id", shift.EmployeeID),
		slog.String("role", string(shift.Role)))
	c.JSON(http.StatusCreated, dto.ToShiftResponse(shift))
}

// clockOut godoc
// @Summary Clock an employee out
// @Description Closes the employee's open shift. Staff can clock themselves out.
// @Tags shifts
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Param   shift body dto.ClockOutRequest false "Clock-out instant"
// @Success 200 {object} dto.ShiftResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "No open shift"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/clock-out [post]
func (h *shiftHandler) clockOut(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	// The body is optional; an absent body clocks out now.
	var req dto.ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	shift, err := h.shiftService.ClockOut(c.Request.Context(), locationID, employeeID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No open shift for this employee"})
		default:
			logger.Error("Failed to clock out", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clock out"})
		}
		return
	}

	logger.Info("Employee clocked out", slog.String("shift_id", shift.ShiftID), slog.String("employee_id", employeeID))
	c.JSON(http.StatusOK, dto.ToShiftResponse(shift))
}

// listShifts godoc
// @Summary List an employee's shifts
// @Description Retrieves an employee's shifts, newest first. Staff can only read their own.
// @Tags shifts
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Param   limit query int false "Page size" default(50)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {array} dto.ShiftResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/shifts [get]
func (h *shiftHandler) listShifts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	shifts, err := h.shiftService.ListShifts(c.Request.Context(), locationID, employeeID, limit, offset)
	if err != nil {
		logger.Error("Failed to list shifts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list shifts"})
		return
	}

	c.JSON(http.StatusOK, dto.ToShiftResponses(shifts))
}

// getOpenShift godoc
// @Summary Get an employee's open shift
// @Description Retrieves the employee's current open shift, if any. Staff can only read their own.
// @Tags shifts
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Success 200 {object} dto.ShiftResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "No open shift"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/open-shift [get]
func (h *shiftHandler) getOpenShift(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	shift, err := h.shiftService.GetOpenShift(c.Request.Context(), locationID, employeeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No open shift for this employee"})
			return
		}
		logger.Error("Failed to get open shift", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get open shift"})
		return
	}

	c.JSON(http.StatusOK, dto.ToShiftResponse(shift))
}

// listOnDuty godoc
// @Summary List employees on duty by role
// @Description Retrieves the open shifts of employees working the given role right now. Tip-out rules resolve their recipients this way.
// @Tags shifts
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   role query string true "Role to filter by" Enums(SERVER, BARTENDER, BUSSER, RUNNER, HOST, EXPO, MANAGER)
// @Success 200 {array} dto.ShiftResponse
// @Failure 400 {object} map[string]string "Missing role"
// @Security BearerAuth
// @Router /locations/{locationID}/on-duty [get]
func (h *shiftHandler) listOnDuty(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query parameter is required"})
		return
	}

	shifts, err := h.shiftService.OnDutyByRole(c.Request.Context(), locationID, domain.Role(role))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list on-duty shifts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list on-duty shifts"})
		return
	}

	c.JSON(http.StatusOK, dto.ToShiftResponses(shifts))
}
