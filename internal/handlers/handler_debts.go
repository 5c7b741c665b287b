package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// debtHandler handles HTTP requests related to tip debts raised by
// chargebacks.
type debtHandler struct {
	debtService portssvc.DebtSvcFacade
}

// newDebtHandler creates a new debtHandler.
func newDebtHandler(ds portssvc.DebtSvcFacade) *debtHandler {
	return &debtHandler{debtService: ds}
}

// registerDebtRoutes registers debt routes. The chargeback webhook that
// raises debts lives with the other webhooks.
func registerDebtRoutes(rg *gin.RouterGroup, debtService portssvc.DebtSvcFacade) {
	h := newDebtHandler(debtService)

	rg.GET("/employees/:employeeID/debts", h.listEmployeeDebts)
	rg.GET("/debts/:debtID", h.getDebt)

	manager := rg.Group("", middleware.RequireManager())
	{
		manager.POST("/debts/:debtID/write-off", h.writeOffDebt)
	}
}

// parseDebtStatus reads the optional status filter from the query string.
func parseDebtStatus(c *gin.Context) (*domain.DebtStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := domain.DebtStatus(raw)
	switch status {
	case domain.DebtOpen, domain.DebtRecovered, domain.DebtWrittenOff:
		return &status, true
	}
	return nil, false
}

// listEmployeeDebts godoc
// @Summary List an employee's tip debts
// @Description Retrieves an employee's tip debts, oldest first. Staff can only read their own.
// @Tags debts
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Param   status query string false "Filter by status" Enums(OPEN, RECOVERED, WRITTEN_OFF)
// @Success 200 {array} dto.DebtResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/debts [get]
func (h *debtHandler) listEmployeeDebts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	status, ok := parseDebtStatus(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	debts, err := h.debtService.ListDebts(c.Request.Context(), locationID, employeeID, status)
	if err != nil {
		logger.Error("Failed to list debts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list debts"})
		return
	}

	c.JSON(http.StatusOK, dto.ToDebtResponses(debts))
}

// getDebt godoc
// @Summary Get a tip debt
// @Description Retrieves a single tip debt. Staff can only read their own.
// @Tags debts
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   debtID path string true "Debt ID"
// @Success 200 {object} dto.DebtResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Debt not found"
// @Security BearerAuth
// @Router /locations/{locationID}/debts/{debtID} [get]
func (h *debtHandler) getDebt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	debtID := c.Param("debtID")

	debt, err := h.debtService.GetDebtByID(c.Request.Context(), locationID, debtID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Debt not found"})
			return
		}
		logger.Error("Failed to get debt", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get debt"})
		return
	}

	if !canActForEmployee(c, debt.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	c.JSON(http.StatusOK, dto.ToDebtResponse(debt))
}

// writeOffDebt godoc
// @Summary Write off a tip debt
// @Description Forgives the unrecovered remainder of an open debt. The house absorbs the loss.
// @Tags debts
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   debtID path string true "Debt ID"
// @Param   writeOff body dto.WriteOffDebtRequest true "Write-off reason"
// @Success 200 {object} dto.DebtResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Debt not found"
// @Failure 409 {object} map[string]string "Debt already resolved"
// @Security BearerAuth
// @Router /locations/{locationID}/debts/{debtID}/write-off [post]
func (h *debtHandler) writeOffDebt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	debtID := c.Param("debtID")

	var req dto.WriteOffDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	debt, err := h.debtService.WriteOffDebt(c.Request.Context(), locationID, debtID, req.Reason, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Debt not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to write off debt", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write off debt"})
		}
		return
	}

	logger.Info("Debt written off", slog.String("debt_id", debtID), slog.String("reason", req.Reason))
	c.JSON(http.StatusOK, dto.ToDebtResponse(debt))
}
