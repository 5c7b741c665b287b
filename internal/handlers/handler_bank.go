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

// bankHandler handles HTTP requests related to banked tip shares, the
// shares held back because their owner was off duty when a tip-out landed.
type bankHandler struct {
	bankService portssvc.BankSvcFacade
}

// newBankHandler creates a new bankHandler.
func newBankHandler(bs portssvc.BankSvcFacade) *bankHandler {
	return &bankHandler{bankService: bs}
}

// registerBankRoutes registers banked share routes.
func registerBankRoutes(rg *gin.RouterGroup, bankService portssvc.BankSvcFacade) {
	h := newBankHandler(bankService)

	rg.GET("/employees/:employeeID/banked-shares", h.listEmployeeShares)
	rg.GET("/banked-shares/:shareID", h.getShare)
	rg.POST("/banked-shares/:shareID/collect", h.collectShare)

	manager := rg.Group("", middleware.RequireManager())
	{
		manager.GET("/banked-shares", h.listShares)
		manager.POST("/banked-shares/:shareID/payout", h.payOutShare)
	}
}

// parseShareStatus reads the optional status filter from the query string.
func parseShareStatus(c *gin.Context) (*domain.BankedShareStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := domain.BankedShareStatus(raw)
	switch status {
	case domain.SharePending, domain.ShareCollected, domain.SharePaidOut:
		return &status, true
	}
	return nil, false
}

// listEmployeeShares godoc
// @Summary List an employee's banked shares
// @Description Retrieves an employee's banked shares, newest first. Staff can only read their own.
// @Tags bank
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Param   status query string false "Filter by status" Enums(PENDING, COLLECTED, PAID_OUT)
// @Success 200 {array} dto.BankedShareResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/banked-shares [get]
func (h *bankHandler) listEmployeeShares(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	status, ok := parseShareStatus(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	shares, err := h.bankService.ListShares(c.Request.Context(), locationID, employeeID, status)
	if err != nil {
		logger.Error("Failed to list banked shares", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list banked shares"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBankedShareResponses(shares))
}

// listShares godoc
// @Summary List banked shares at a location
// @Description Retrieves banked shares across all employees, newest first. Managers use this to see what is still owed.
// @Tags bank
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   status query string false "Filter by status" Enums(PENDING, COLLECTED, PAID_OUT)
// @Success 200 {array} dto.BankedShareResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/banked-shares [get]
func (h *bankHandler) listShares(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	status, ok := parseShareStatus(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	shares, err := h.bankService.ListShares(c.Request.Context(), locationID, "", status)
	if err != nil {
		logger.Error("Failed to list banked shares", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list banked shares"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBankedShareResponses(shares))
}

// getShare godoc
// @Summary Get a banked share
// @Description Retrieves a single banked share. Staff can only read their own.
// @Tags bank
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   shareID path string true "Share ID"
// @Success 200 {object} dto.BankedShareResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Share not found"
// @Security BearerAuth
// @Router /locations/{locationID}/banked-shares/{shareID} [get]
func (h *bankHandler) getShare(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	shareID := c.Param("shareID")

	share, err := h.bankService.GetShareByID(c.Request.Context(), locationID, shareID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Share not found"})
			return
		}
		logger.Error("Failed to get banked share", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get banked share"})
		return
	}

	if !canActForEmployee(c, share.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBankedShareResponse(share))
}

// collectShare godoc
// @Summary Collect a banked share
// @Description Posts a pending banked share to its owner's ledger account. A share can only be collected once. Staff can collect their own shares.
// @Tags bank
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   shareID path string true "Share ID"
// @Success 200 {object} dto.BankedShareResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Share not found"
// @Failure 409 {object} map[string]string "Share already resolved"
// @Security BearerAuth
// @Router /locations/{locationID}/banked-shares/{shareID}/collect [post]
func (h *bankHandler) collectShare(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	shareID := c.Param("shareID")

	share, err := h.bankService.GetShareByID(c.Request.Context(), locationID, shareID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Share not found"})
			return
		}
		logger.Error("Failed to get banked share", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect share"})
		return
	}
	if !canActForEmployee(c, share.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	collected, err := h.bankService.CollectShare(c.Request.Context(), locationID, shareID, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Share not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to collect share", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect share"})
		}
		return
	}

	logger.Info("Banked share collected", slog.String("share_id", shareID), slog.Int64("amount_cents", collected.AmountCents))
	c.JSON(http.StatusOK, dto.ToBankedShareResponse(collected))
}

// payOutShare godoc
// @Summary Pay out a banked share through payroll
// @Description Marks a pending banked share as settled through payroll. The share never touches the ledger.
// @Tags bank
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   shareID path string true "Share ID"
// @Param   payout body dto.PayOutShareRequest true "Payroll reference"
// @Success 200 {object} dto.BankedShareResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Share not found"
// @Failure 409 {object} map[string]string "Share already resolved"
// @Security BearerAuth
// @Router /locations/{locationID}/banked-shares/{shareID}/payout [post]
func (h *bankHandler) payOutShare(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	shareID := c.Param("shareID")

	var req dto.PayOutShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	share, err := h.bankService.PayOutShare(c.Request.Context(), locationID, shareID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Share not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to pay out share", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to pay out share"})
		}
		return
	}

	logger.Info("Banked share paid out", slog.String("share_id", shareID), slog.String("payroll_ref", req.PayrollRef))
	c.JSON(http.StatusOK, dto.ToBankedShareResponse(share))
}
