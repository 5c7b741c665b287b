package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// contextKey is the private key type for values this package stores in
// contexts. Using a custom type prevents collisions.
type contextKey string

const (
	// loggerCtxKey stores the request-scoped logger in the standard context.
	loggerCtxKey = contextKey("logger")

	// userIDKey stores the authenticated user's ID.
	userIDKey = contextKey("userID")

	// authUserKey stores the loaded user record after location access checks.
	authUserKey = contextKey("authUser")

	// terminalTokenKey stores the validated POS terminal token.
	terminalTokenKey = contextKey("terminalToken")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal := c.Request.Context().Value(userIDKey)
	if userIDVal == nil {
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok {
		// This should not happen if the auth middleware sets it correctly
		return "", false
	}
	return userID, true
}

// GetAuthUserFromContext retrieves the authenticated user record loaded by
// RequireLocationAccess. It returns nil when no user has been loaded.
func GetAuthUserFromContext(c *gin.Context) *domain.User {
	user, ok := c.Request.Context().Value(authUserKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetTerminalTokenFromContext retrieves the validated terminal token set by
// TerminalAuth. It returns nil when the request was not terminal-authenticated.
func GetTerminalTokenFromContext(c *gin.Context) *domain.TerminalToken {
	token, ok := c.Request.Context().Value(terminalTokenKey).(*domain.TerminalToken)
	if !ok {
		return nil
	}
	return token
}
