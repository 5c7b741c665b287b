package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// ledgerHandler handles HTTP requests related to tip ledger accounts and
// entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// canActForEmployee reports whether the caller may read or act on the given
// employee's data. Managers always can; staff only for the employee their
// login is bound to. Terminal tokens never can.
func canActForEmployee(c *gin.Context, employeeID string) bool {
	user := middleware.GetAuthUserFromContext(c)
	if user == nil {
		return false
	}
	if user.Role == domain.UserRoleManager {
		return true
	}
	return user.EmployeeID != "" && user.EmployeeID == employeeID
}

// BalanceAuditResponse compares a balance recomputed from entries against
// the cached one. The two must agree; InSync false means the ledger needs
// attention.
type BalanceAuditResponse struct {
	AccountID    string `json:"accountID"`
	DerivedCents int64  `json:"derivedCents"`
	CachedCents  int64  `json:"cachedCents"`
	InSync       bool   `json:"inSync"`
}

// registerLedgerRoutes registers balance and entry routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	rg.GET("/employees/:employeeID/balance", h.getEmployeeBalance)
	rg.GET("/employees/:employeeID/ledger", h.listEntries)

	manager := rg.Group("", middleware.RequireManager())
	{
		manager.GET("/house/balance", h.getHouseBalance)
		manager.GET("/accounts/:accountID/recompute", h.recomputeBalance)
		manager.POST("/adjustments", h.createAdjustment)
		manager.POST("/entries/:entryID/reverse", h.reverseEntry)
	}
}

// getEmployeeBalance godoc
// @Summary Get an employee's tip balance
// @Description Retrieves the current ledger account of an employee. Staff can only read their own.
// @Tags ledger
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/balance [get]
func (h *ledgerHandler) getEmployeeBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	account, err := h.ledgerService.GetEmployeeBalance(c.Request.Context(), locationID, employeeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get employee balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(account))
}

// getHouseBalance godoc
// @Summary Get the house balance
// @Description Retrieves the location's house account, which absorbs remainders, empty-pool fallbacks and written-off debts.
// @Tags ledger
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /locations/{locationID}/house/balance [get]
func (h *ledgerHandler) getHouseBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	account, err := h.ledgerService.GetHouseBalance(c.Request.Context(), locationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to get house balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(account))
}

// listEntries godoc
// @Summary List an employee's ledger entries
// @Description Retrieves a page of ledger entries for an employee's account, newest first. Staff can only read their own.
// @Tags ledger
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   employeeID path string true "Employee ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Cursor from the previous page"
// @Param   from query string false "Inclusive lower time bound (RFC3339)"
// @Param   to query string false "Exclusive upper time bound (RFC3339)"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /locations/{locationID}/employees/{employeeID}/ledger [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	employeeID := c.Param("employeeID")

	if !canActForEmployee(c, employeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access to this employee's data is not permitted"})
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntries(c.Request.Context(), locationID, employeeID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to list ledger entries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// recomputeBalance godoc
// @Summary Audit an account balance
// @Description Re-derives an account balance from its entries and compares it against the cached balance.
// @Tags ledger
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   accountID path string true "Account ID"
// @Success 200 {object} BalanceAuditResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /locations/{locationID}/accounts/{accountID}/recompute [get]
func (h *ledgerHandler) recomputeBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	accountID := c.Param("accountID")

	derived, cached, err := h.ledgerService.RecomputeBalance(c.Request.Context(), locationID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to recompute balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute balance"})
		return
	}

	if derived != cached {
		logger.Error("Account balance out of sync",
			slog.String("account_id", accountID),
			slog.Int64("derived_cents", derived),
			slog.Int64("cached_cents", cached))
	}

	c.JSON(http.StatusOK, BalanceAuditResponse{
		AccountID:    accountID,
		DerivedCents: derived,
		CachedCents:  cached,
		InSync:       derived == cached,
	})
}

// createAdjustment godoc
// @Summary Post a manual adjustment
// @Description Posts a correction entry against an employee's account. The caller supplies the idempotency key, so a retried submission cannot double-post.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   adjustment body dto.CreateAdjustmentRequest true "Adjustment details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Employee not found"
// @Failure 409 {object} map[string]string "Idempotency key reused with a different payload"
// @Security BearerAuth
// @Router /locations/{locationID}/adjustments [post]
func (h *ledgerHandler) createAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAdjustment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.ledgerService.PostAdjustment(c.Request.Context(), locationID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to post adjustment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post adjustment"})
		}
		return
	}

	logger.Info("Adjustment posted", slog.String("entry_id", entry.EntryID), slog.Int64("amount_cents", entry.AmountCents))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a ledger entry
// @Description Voids a posted entry with an equal and opposite entry. Reversing twice is refused.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   entryID path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest false "Reversal reason"
// @Success 201 {object} dto.EntryResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already reversed"
// @Security BearerAuth
// @Router /locations/{locationID}/entries/{entryID}/reverse [post]
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	entryID := c.Param("entryID")

	// The body is optional; an absent body means no reason given.
	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, err := h.ledgerService.ReverseEntry(c.Request.Context(), locationID, entryID, req.Reason, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to reverse entry", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse entry"})
		}
		return
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}
