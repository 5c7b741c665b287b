package models

import "time"

// TerminalToken is a row in terminal_tokens. POS credentials per location.
type TerminalToken struct {
	TokenID    string `db:"token_id"`
	LocationID string `db:"location_id"`
	Name       string `db:"name"`
	TokenHash  string `db:"token_hash"` // SHA-256 hex digest, UNIQUE
	AuditFields
	LastUsedAt *time.Time `db:"last_used_at"`
	ExpiresAt  *time.Time `db:"expires_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}
