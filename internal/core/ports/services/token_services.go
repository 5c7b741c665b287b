package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// TerminalTokenSvcFacade defines operations for POS terminal tokens.
type TerminalTokenSvcFacade interface {
	// CreateToken provisions a terminal token for a location. Returns the
	// plaintext secret (only shown once) alongside the token record.
	CreateToken(ctx context.Context, locationID string, req dto.CreateTerminalTokenRequest, creatorUserID string) (string, *domain.TerminalToken, error)

	// ListTokens returns a location's tokens, revoked included.
	ListTokens(ctx context.Context, locationID string) ([]domain.TerminalToken, error)

	// RevokeToken permanently disables a token.
	RevokeToken(ctx context.Context, locationID string, tokenID string, requestingUserID string) error

	// ValidateToken checks a presented secret and returns the owning token.
	// Updates the token's last use, best effort.
	ValidateToken(ctx context.Context, tokenString string) (*domain.TerminalToken, error)
}
