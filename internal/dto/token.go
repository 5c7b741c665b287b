package dto

import (
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
)

// CreateTerminalTokenRequest provisions a POS terminal token for a location.
// ExpiresInDays is optional; omitted means the token never expires.
type CreateTerminalTokenRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	ExpiresInDays *int   `json:"expiresInDays,omitempty" binding:"omitempty,min=1,max=3650"`
}

// TerminalTokenResponse is the API shape of a terminal token. Token carries
// the plaintext secret and is only populated on creation.
type TerminalTokenResponse struct {
	TokenID    string     `json:"tokenID"`
	LocationID string     `json:"locationID"`
	Name       string     `json:"name"`
	Token      string     `json:"token,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToTerminalTokenResponse maps a terminal token to its API shape. The
// plaintext secret is never part of the domain record; callers that just
// created a token set the Token field themselves.
func ToTerminalTokenResponse(t *domain.TerminalToken) TerminalTokenResponse {
	return TerminalTokenResponse{
		TokenID:    t.TokenID,
		LocationID: t.LocationID,
		Name:       t.Name,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		RevokedAt:  t.RevokedAt,
		CreatedAt:  t.CreatedAt,
	}
}

// ToTerminalTokenResponses maps a slice of terminal tokens preserving order.
func ToTerminalTokenResponses(tokens []domain.TerminalToken) []TerminalTokenResponse {
	out := make([]TerminalTokenResponse, 0, len(tokens))
	for i := range tokens {
		out = append(out, ToTerminalTokenResponse(&tokens[i]))
	}
	return out
}
