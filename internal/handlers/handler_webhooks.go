package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/stackpos/tipengine/internal/apperrors"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/config"
)

// webhookHandler receives tip and chargeback events from the payment
// subsystem. Both endpoints are idempotent on payment ID, so redelivery of
// the same event is harmless.
type webhookHandler struct {
	attributionService portssvc.AttributionSvcFacade
	debtService        portssvc.DebtSvcFacade
}

// newWebhookHandler creates a new webhookHandler.
func newWebhookHandler(as portssvc.AttributionSvcFacade, ds portssvc.DebtSvcFacade) *webhookHandler {
	return &webhookHandler{
		attributionService: as,
		debtService:        ds,
	}
}

// registerWebhookRoutes registers the payment subsystem endpoints. POS
// terminals authenticate with an API token; managers may also post manually.
func registerWebhookRoutes(rg *gin.RouterGroup, cfg *config.Config, attributionService portssvc.AttributionSvcFacade, debtService portssvc.DebtSvcFacade) {
	h := newWebhookHandler(attributionService, debtService)

	rate, err := limiter.NewRateFromFormatted(cfg.WebhookRateLimit)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("600-M")
	}
	ipLimiter := limiter.New(memory.NewStore(), rate)

	hooks := rg.Group("", middleware.RequireManagerOrTerminal(), middleware.RateLimit(ipLimiter))
	{
		hooks.POST("/tips", h.attributeTip)
		hooks.POST("/chargebacks", h.handleChargeback)
	}
}

// attributeTip godoc
// @Summary Attribute a tip
// @Description Splits a collected tip across the target pool segment or direct employee, applies tip-out rules, and posts the resulting ledger entries. Replays of the same payment ID return the original outcome.
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   tip body dto.AttributeTipRequest true "Tip event"
// @Success 200 {object} dto.TipAttributionResponse "Replayed"
// @Success 201 {object} dto.TipAttributionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Pool or employee not found"
// @Failure 409 {object} map[string]string "Conflicting attribution"
// @Failure 503 {object} map[string]string "Contention, retry"
// @Security BearerAuth
// @Router /locations/{locationID}/tips [post]
func (h *webhookHandler) attributeTip(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.AttributeTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AttributeTip", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("payment_id", req.PaymentID))

	resp, err := h.attributionService.AttributeTip(c.Request.Context(), locationID, req, actorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Tip attribution rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Tip attribution target not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Tip attribution conflict", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			logger.Warn("Tip attribution hit contention")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to attribute tip", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attribute tip"})
		}
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	logger.Info("Tip attributed", slog.String("transaction_id", resp.TransactionID), slog.Bool("replayed", resp.Replayed))
	c.JSON(status, resp)
}

// handleChargeback godoc
// @Summary Handle a chargeback
// @Description Reverses the tip attribution of a charged-back payment, raising debts for shares the employees cannot cover right now. Replays of the same payment ID return the original outcome.
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   chargeback body dto.ChargebackRequest true "Chargeback event"
// @Success 200 {object} dto.ChargebackResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Payment never attributed here"
// @Failure 503 {object} map[string]string "Contention, retry"
// @Security BearerAuth
// @Router /locations/{locationID}/chargebacks [post]
func (h *webhookHandler) handleChargeback(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.ChargebackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for HandleChargeback", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("payment_id", req.PaymentID))

	resp, err := h.debtService.HandleChargeback(c.Request.Context(), locationID, req, actorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Chargeback rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Chargeback for unknown payment")
			c.JSON(http.StatusNotFound, gin.H{"error": "No tip attribution found for this payment"})
		case errors.Is(err, apperrors.ErrBusy):
			logger.Warn("Chargeback hit contention")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to handle chargeback", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle chargeback"})
		}
		return
	}

	logger.Info("Chargeback handled", slog.String("transaction_id", resp.TransactionID), slog.Bool("replayed", resp.Replayed))
	c.JSON(http.StatusOK, resp)
}
