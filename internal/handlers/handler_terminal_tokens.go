package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// terminalTokenHandler handles HTTP requests related to POS terminal tokens.
type terminalTokenHandler struct {
	tokenService portssvc.TerminalTokenSvcFacade
}

// newTerminalTokenHandler creates a new terminalTokenHandler.
func newTerminalTokenHandler(ts portssvc.TerminalTokenSvcFacade) *terminalTokenHandler {
	return &terminalTokenHandler{tokenService: ts}
}

// registerTerminalTokenRoutes registers terminal token routes. Tokens only
// unlock the webhook surface, but managing them is a manager action.
func registerTerminalTokenRoutes(rg *gin.RouterGroup, tokenService portssvc.TerminalTokenSvcFacade) {
	h := newTerminalTokenHandler(tokenService)

	tokens := rg.Group("/terminal-tokens", middleware.RequireManager())
	{
		tokens.POST("", h.createToken)
		tokens.GET("", h.listTokens)
		tokens.DELETE("/:tokenID", h.revokeToken)
	}
}

// createToken godoc
// @Summary Create a terminal token
// @Description Provisions an API token for a POS terminal. The plaintext token is returned once and never stored.
// @Tags terminal-tokens
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   token body dto.CreateTerminalTokenRequest true "Token details"
// @Success 201 {object} dto.TerminalTokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/terminal-tokens [post]
func (h *terminalTokenHandler) createToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.CreateTerminalTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateToken", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	plaintext, token, err := h.tokenService.CreateToken(c.Request.Context(), locationID, req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create terminal token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create terminal token"})
		return
	}

	resp := dto.ToTerminalTokenResponse(token)
	resp.Token = plaintext

	logger.Info("Terminal token created", slog.String("terminal_token_id", token.TokenID), slog.String("name", token.Name))
	c.JSON(http.StatusCreated, resp)
}

// listTokens godoc
// @Summary List terminal tokens
// @Description Retrieves the location's terminal tokens, newest first. Plaintext secrets are never returned.
// @Tags terminal-tokens
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Success 200 {array} dto.TerminalTokenResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/terminal-tokens [get]
func (h *terminalTokenHandler) listTokens(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), locationID)
	if err != nil {
		logger.Error("Failed to list terminal tokens", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list terminal tokens"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTerminalTokenResponses(tokens))
}

// revokeToken godoc
// @Summary Revoke a terminal token
// @Description Revokes a terminal token. Requests presenting it are rejected from then on.
// @Tags terminal-tokens
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   tokenID path string true "Token ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Token not found or already revoked"
// @Security BearerAuth
// @Router /locations/{locationID}/terminal-tokens/{tokenID} [delete]
func (h *terminalTokenHandler) revokeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	tokenID := c.Param("tokenID")

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.tokenService.RevokeToken(c.Request.Context(), locationID, tokenID, requestingUserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found or already revoked"})
			return
		}
		logger.Error("Failed to revoke terminal token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke terminal token"})
		return
	}

	logger.Info("Terminal token revoked", slog.String("terminal_token_id", tokenID))
	c.Status(http.StatusNoContent)
}
