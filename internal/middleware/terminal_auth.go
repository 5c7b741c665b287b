package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
)

// TerminalAuth authenticates POS terminals by their x-api-key header. A
// missing or invalid key falls through so JWT auth can decide; a valid key
// marks the request authenticated with the terminal as the acting principal.
func TerminalAuth(tokenSvc portssvc.TerminalTokenSvcFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next() // No api key provided, let it continue
			return
		}

		token, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			c.Next() // Token validation failed, let JWT auth decide
			return
		}

		// Audit fields on terminal-originated postings record the token ID.
		ctx := context.WithValue(c.Request.Context(), userIDKey, token.TokenID)
		ctx = context.WithValue(ctx, terminalTokenKey, token)
		enrichedLogger := GetLoggerFromCtx(ctx).With(slog.String("terminal_token_id", token.TokenID))
		ctx = context.WithValue(ctx, loggerCtxKey, enrichedLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Set("authMethod", "api_token")
		c.Next()
	}
}
