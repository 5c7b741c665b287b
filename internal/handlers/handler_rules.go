package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// tipOutRuleHandler handles HTTP requests related to role-based tip-out
// rules.
type tipOutRuleHandler struct {
	tipOutService portssvc.TipOutSvcFacade
}

// newTipOutRuleHandler creates a new tipOutRuleHandler.
func newTipOutRuleHandler(ts portssvc.TipOutSvcFacade) *tipOutRuleHandler {
	return &tipOutRuleHandler{tipOutService: ts}
}

// registerTipOutRuleRoutes registers tip-out rule routes.
func registerTipOutRuleRoutes(rg *gin.RouterGroup, tipOutService portssvc.TipOutSvcFacade) {
	h := newTipOutRuleHandler(tipOutService)

	rules := rg.Group("/tip-out-rules")
	{
		rules.GET("", h.listRules)
		rules.GET("/:ruleID", h.getRule)
	}

	manager := rg.Group("/tip-out-rules", middleware.RequireManager())
	{
		manager.POST("", h.createRule)
		manager.PATCH("/:ruleID", h.updateRule)
	}
}

// listRules godoc
// @Summary List tip-out rules
// @Description Retrieves the location's tip-out rules, oldest first.
// @Tags tip-out-rules
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   activeOnly query bool false "Only return active rules" default(false)
// @Success 200 {array} dto.TipOutRuleResponse
// @Security BearerAuth
// @Router /locations/{locationID}/tip-out-rules [get]
func (h *tipOutRuleHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	activeOnly, err := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activeOnly must be a boolean"})
		return
	}

	rules, err := h.tipOutService.ListRules(c.Request.Context(), locationID, activeOnly)
	if err != nil {
		logger.Error("Failed to list tip-out rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tip-out rules"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTipOutRuleResponses(rules))
}

// getRule godoc
// @Summary Get a tip-out rule
// @Description Retrieves a single tip-out rule by ID.
// @Tags tip-out-rules
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   ruleID path string true "Rule ID"
// @Success 200 {object} dto.TipOutRuleResponse
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /locations/{locationID}/tip-out-rules/{ruleID} [get]
func (h *tipOutRuleHandler) getRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	ruleID := c.Param("ruleID")

	rule, err := h.tipOutService.GetRuleByID(c.Request.Context(), locationID, ruleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
			return
		}
		logger.Error("Failed to get tip-out rule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tip-out rule"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTipOutRuleResponse(rule))
}

// createRule godoc
// @Summary Create a tip-out rule
// @Description Creates a role-to-role tip-out rule. Only one active rule per role pair is allowed at a location.
// @Tags tip-out-rules
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   rule body dto.CreateTipOutRuleRequest true "Rule details"
// @Success 201 {object} dto.TipOutRuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Active rule for this role pair exists"
// @Security BearerAuth
// @Router /locations/{locationID}/tip-out-rules [post]
func (h *tipOutRuleHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.CreateTipOutRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.tipOutService.CreateRule(c.Request.Context(), locationID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create tip-out rule", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tip-out rule"})
		}
		return
	}

	logger.Info("Tip-out rule created",
		slog.String("rule_id", rule.RuleID),
		slog.String("from_role", string(rule.FromRole)),
		slog.String("to_role", string(rule.ToRole)))
	c.JSON(http.StatusCreated, dto.ToTipOutRuleResponse(rule))
}

// updateRule godoc
// @Summary Update a tip-out rule
// @Description Patches a rule's rate, cap or active flag. The role pair is immutable; create a new rule to change it.
// @Tags tip-out-rules
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   ruleID path string true "Rule ID"
// @Param   rule body dto.UpdateTipOutRuleRequest true "Fields to update"
// @Success 200 {object} dto.TipOutRuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 409 {object} map[string]string "Re-activation collides with another active rule"
// @Security BearerAuth
// @Router /locations/{locationID}/tip-out-rules/{ruleID} [patch]
func (h *tipOutRuleHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	ruleID := c.Param("ruleID")

	var req dto.UpdateTipOutRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateRule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.tipOutService.UpdateRule(c.Request.Context(), locationID, ruleID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update tip-out rule", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tip-out rule"})
		}
		return
	}

	logger.Info("Tip-out rule updated", slog.String("rule_id", ruleID))
	c.JSON(http.StatusOK, dto.ToTipOutRuleResponse(rule))
}
