package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveToken persists a new terminal token.
func (s *Store) SaveToken(_ context.Context, token domain.TerminalToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tokens {
		if existing.TokenHash == token.TokenHash {
			return fmt.Errorf("token digest collision for %s: %w", token.TokenID, apperrors.ErrDuplicate)
		}
	}
	s.tokens[token.TokenID] = token
	return nil
}

// FindTokenByID retrieves a token by its unique identifier.
func (s *Store) FindTokenByID(_ context.Context, tokenID string) (*domain.TerminalToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &token, nil
}

// FindTokenByHash retrieves a token by its stored digest.
func (s *Store) FindTokenByHash(_ context.Context, tokenHash string) (*domain.TerminalToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, token := range s.tokens {
		if token.TokenHash == tokenHash {
			found := token
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListTokensByLocation retrieves a location's tokens, revoked included,
// newest first.
func (s *Store) ListTokensByLocation(_ context.Context, locationID string) ([]domain.TerminalToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := []domain.TerminalToken{}
	for _, token := range s.tokens {
		if token.LocationID == locationID {
			tokens = append(tokens, token)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		if !tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
		}
		return tokens[i].TokenID > tokens[j].TokenID
	})
	return tokens, nil
}

// TouchToken stamps a token's last use. Missing tokens are ignored; callers
// treat failures as non-fatal.
func (s *Store) TouchToken(_ context.Context, tokenID string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil
	}
	token.LastUsedAt = &usedAt
	s.tokens[tokenID] = token
	return nil
}

// RevokeToken stamps a token revoked.
func (s *Store) RevokeToken(_ context.Context, tokenID string, revokedAt time.Time, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok || token.RevokedAt != nil {
		return apperrors.ErrNotFound
	}
	token.RevokedAt = &revokedAt
	token.LastUpdatedAt = revokedAt
	token.LastUpdatedBy = userID
	s.tokens[tokenID] = token
	return nil
}
