package repositories

import (
	"context"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// TerminalTokenReader defines read operations for POS terminal tokens.
type TerminalTokenReader interface {
	// FindTokenByID retrieves a token by its unique identifier.
	FindTokenByID(ctx context.Context, tokenID string) (*domain.TerminalToken, error)

	// FindTokenByHash retrieves a token by its stored digest.
	FindTokenByHash(ctx context.Context, tokenHash string) (*domain.TerminalToken, error)

	// ListTokensByLocation retrieves a location's tokens, revoked included,
	// newest first.
	ListTokensByLocation(ctx context.Context, locationID string) ([]domain.TerminalToken, error)
}

// TerminalTokenWriter defines write operations for POS terminal tokens.
type TerminalTokenWriter interface {
	// SaveToken persists a new token.
	SaveToken(ctx context.Context, token domain.TerminalToken) error

	// TouchToken stamps a token's last use. Best effort; failures must not
	// block the authenticated request.
	TouchToken(ctx context.Context, tokenID string, usedAt time.Time) error

	// RevokeToken stamps a token revoked.
	RevokeToken(ctx context.Context, tokenID string, revokedAt time.Time, userID string) error
}

// TerminalTokenRepositoryFacade combines all terminal token repository interfaces.
type TerminalTokenRepositoryFacade interface {
	TerminalTokenReader
	TerminalTokenWriter
}
