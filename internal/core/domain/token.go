package domain

import "time"

// TerminalToken authenticates a POS terminal on the tips and chargebacks
// webhooks. The plaintext secret is shown once at creation; only its SHA-256
// digest is stored. Tokens are bound to one location and never unlock the
// administrative surface.
type TerminalToken struct {
	TokenID    string     `json:"tokenID"`    // Primary Key (UUID)
	LocationID string     `json:"locationID"` // FK -> locations.location_id
	Name       string     `json:"name"`       // Operator label, e.g. "bar register 2"
	TokenHash  string     `json:"-"`          // Never expose the digest in JSON responses
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	AuditFields
}

// IsExpired checks if the token has expired.
func (t *TerminalToken) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(time.Now())
}

// IsRevoked checks if the token has been revoked.
func (t *TerminalToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
