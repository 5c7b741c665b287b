package domain_test

import (
	"testing"
	"time"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestTerminalToken_IsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token domain.TerminalToken
		want  bool
	}{
		{
			name:  "no expiry set",
			token: domain.TerminalToken{},
			want:  false,
		},
		{
			name:  "expiry in the future",
			token: domain.TerminalToken{ExpiresAt: &future},
			want:  false,
		},
		{
			name:  "expiry in the past",
			token: domain.TerminalToken{ExpiresAt: &past},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsExpired())
		})
	}
}

func TestTerminalToken_IsRevoked(t *testing.T) {
	revokedAt := time.Now().Add(-time.Minute)

	live := domain.TerminalToken{}
	revoked := domain.TerminalToken{RevokedAt: &revokedAt}

	assert.False(t, live.IsRevoked())
	assert.True(t, revoked.IsRevoked())
}
