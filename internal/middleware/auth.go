package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/utils"
)

// AuthMiddleware creates a Gin middleware handler that validates JWT tokens.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve logger from the standard context
		logger := GetLoggerFromCtx(c.Request.Context())

		// Skip if another middleware already authenticated the request
		if authMethod, exists := c.Get("authMethod"); exists {
			logger.Info("Auth already done", "authMethod", authMethod)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		tokenString := parts[1]

		// Parse and validate the token
		claims, err := utils.ParseAndValidateJWT(tokenString, jwtSecret)
		if err != nil {
			logger.Warn("Invalid token", "error", err)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		userID := claims.Subject
		if userID == "" {
			logger.Error("User ID (subject) missing from valid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		// Store the user ID in the context (using standard context)
		ctxWithUser := context.WithValue(c.Request.Context(), userIDKey, userID)

		// Add user ID to the logger
		enrichedLogger := logger.With(slog.String("user_id", userID))

		// Store the *enriched* logger back into the standard context
		ctxWithLoggerAndUser := context.WithValue(ctxWithUser, loggerCtxKey, enrichedLogger)

		// Update the request context
		c.Request = c.Request.WithContext(ctxWithLoggerAndUser)

		c.Next() // Proceed to the next handler
	}
}

// RequireLocationAccess loads the authenticated user and verifies they belong
// to the location named in the route. The loaded user is stored in the
// context for downstream role checks.
func RequireLocationAccess(authSvc portssvc.AuthSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		// Terminal tokens carry their own location binding.
		if token := GetTerminalTokenFromContext(c); token != nil {
			locationID := c.Param("locationID")
			if locationID != "" && token.LocationID != locationID {
				logger.Warn("Terminal token location mismatch",
					slog.String("terminal_token_id", token.TokenID),
					slog.String("location_id", locationID))
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access to this location is not permitted"})
				return
			}
			c.Next()
			return
		}

		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		user, err := authSvc.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			logger.Warn("Authenticated user not found", slog.String("user_id", userID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		locationID := c.Param("locationID")
		if locationID != "" && user.LocationID != locationID {
			logger.Warn("Location access denied",
				slog.String("user_id", userID),
				slog.String("location_id", locationID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access to this location is not permitted"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), authUserKey, user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireManager gates a route group to manager users. Must run after
// RequireLocationAccess.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUserFromContext(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if user.Role != domain.UserRoleManager {
			GetLoggerFromCtx(c.Request.Context()).Warn("Manager role required", slog.String("user_id", user.UserID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Manager role required"})
			return
		}
		c.Next()
	}
}

// RequireManagerOrTerminal admits POS terminals and manager users. Webhook
// routes use this so both the payment subsystem and managers can post.
func RequireManagerOrTerminal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTerminalTokenFromContext(c) != nil {
			c.Next()
			return
		}
		user := GetAuthUserFromContext(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if user.Role != domain.UserRoleManager {
			GetLoggerFromCtx(c.Request.Context()).Warn("Manager role required", slog.String("user_id", user.UserID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Manager role required"})
			return
		}
		c.Next()
	}
}
