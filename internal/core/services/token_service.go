package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/utils"
)

// terminalTokenService issues and validates POS terminal tokens. Secrets are
// stored as SHA-256 digests so validation is a single indexed lookup.
type terminalTokenService struct {
	tokenRepo portsrepo.TerminalTokenRepositoryFacade
}

// NewTerminalTokenService creates a new TerminalTokenService.
func NewTerminalTokenService(tokenRepo portsrepo.TerminalTokenRepositoryFacade) portssvc.TerminalTokenSvcFacade {
	return &terminalTokenService{tokenRepo: tokenRepo}
}

// Ensure terminalTokenService implements the portssvc.TerminalTokenSvcFacade interface
var _ portssvc.TerminalTokenSvcFacade = (*terminalTokenService)(nil)

// CreateToken generates a terminal token for a location. The returned
// plaintext secret is not recoverable afterwards.
func (s *terminalTokenService) CreateToken(ctx context.Context, locationID string, req dto.CreateTerminalTokenRequest, creatorUserID string) (string, *domain.TerminalToken, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	secret, err := generateTerminalSecret()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token secret: %w", err)
	}

	var expiresAt *time.Time
	if req.ExpiresInDays != nil {
		expiry := time.Now().UTC().AddDate(0, 0, *req.ExpiresInDays)
		expiresAt = &expiry
	}

	now := time.Now().UTC()
	token := domain.TerminalToken{
		TokenID:    uuid.NewString(),
		LocationID: locationID,
		Name:       req.Name,
		TokenHash:  utils.HashTerminalSecret(secret),
		ExpiresAt:  expiresAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.tokenRepo.SaveToken(ctx, token); err != nil {
		logger.Error("failed to save terminal token", slog.String("error", err.Error()), slog.String("location_id", locationID))
		return "", nil, fmt.Errorf("failed to save terminal token: %w", err)
	}

	logger.Info("terminal token created", slog.String("token_id", token.TokenID), slog.String("location_id", locationID))
	return secret, &token, nil
}

// ListTokens returns a location's tokens, revoked included.
func (s *terminalTokenService) ListTokens(ctx context.Context, locationID string) ([]domain.TerminalToken, error) {
	tokens, err := s.tokenRepo.ListTokensByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken permanently disables a token. Revoking twice is a no-op.
func (s *terminalTokenService) RevokeToken(ctx context.Context, locationID string, tokenID string, requestingUserID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	token, err := s.tokenRepo.FindTokenByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("terminal token %s not found: %w", tokenID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to find terminal token: %w", err)
	}
	if token.LocationID != locationID {
		return fmt.Errorf("terminal token %s not found: %w", tokenID, apperrors.ErrNotFound)
	}
	if token.IsRevoked() {
		return nil
	}

	if err := s.tokenRepo.RevokeToken(ctx, tokenID, time.Now().UTC(), requestingUserID); err != nil {
		return fmt.Errorf("failed to revoke terminal token: %w", err)
	}

	logger.Info("terminal token revoked", slog.String("token_id", tokenID), slog.String("location_id", locationID))
	return nil
}

// ValidateToken checks a presented secret against stored digests. Expired and
// revoked tokens fail closed; last use is recorded best effort.
func (s *terminalTokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.TerminalToken, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tokenString == "" {
		return nil, fmt.Errorf("token is required: %w", apperrors.ErrUnauthorized)
	}

	token, err := s.tokenRepo.FindTokenByHash(ctx, utils.HashTerminalSecret(tokenString))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up terminal token: %w", err)
	}

	if token.IsRevoked() {
		return nil, fmt.Errorf("token has been revoked: %w", apperrors.ErrUnauthorized)
	}
	if token.IsExpired() {
		return nil, fmt.Errorf("token has expired: %w", apperrors.ErrUnauthorized)
	}

	if err := s.tokenRepo.TouchToken(ctx, token.TokenID, time.Now().UTC()); err != nil {
		logger.Warn("failed to record terminal token use", slog.String("token_id", token.TokenID), slog.String("error", err.Error()))
	}

	return token, nil
}

// generateTerminalSecret returns a random secret with a recognizable prefix
// so leaked tokens can be spotted in logs and scanners.
func generateTerminalSecret() (string, error) {
	s, err := utils.GenerateSecureRandomString(24)
	if err != nil {
		return "", err
	}
	return "pos_" + s, nil
}
