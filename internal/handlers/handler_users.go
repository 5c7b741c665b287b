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

// userHandler handles HTTP requests related to back-office logins.
type userHandler struct {
	authService portssvc.AuthSvcFacade
}

// newUserHandler creates a new userHandler.
func newUserHandler(as portssvc.AuthSvcFacade) *userHandler {
	return &userHandler{authService: as}
}

// registerUserRoutes registers user provisioning routes.
func registerUserRoutes(rg *gin.RouterGroup, authService portssvc.AuthSvcFacade) {
	h := newUserHandler(authService)

	users := rg.Group("/users", middleware.RequireManager())
	{
		users.POST("", h.createUser)
	}
}

// createUser godoc
// @Summary Create a back-office user
// @Description Provisions a login at the location, optionally bound to an employee so self-service reads can be scoped.
// @Tags users
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   user body dto.CreateUserRequest true "User details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Linked employee not found"
// @Failure 409 {object} map[string]string "Username already taken"
// @Security BearerAuth
// @Router /locations/{locationID}/users [post]
func (h *userHandler) createUser(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateUser", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), locationID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Linked employee not found"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		default:
			logger.Error("Failed to create user", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		}
		return
	}

	logger.Info("User created", slog.String("user_id", user.UserID), slog.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}
