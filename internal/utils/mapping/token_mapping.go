package mapping

import (
	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/models"
)

// ToModelTerminalToken converts a domain TerminalToken to a model TerminalToken
func ToModelTerminalToken(d domain.TerminalToken) models.TerminalToken {
	return models.TerminalToken{
		TokenID:     d.TokenID,
		LocationID:  d.LocationID,
		Name:        d.Name,
		TokenHash:   d.TokenHash,
		AuditFields: ToModelAuditFields(d.AuditFields),
		LastUsedAt:  d.LastUsedAt,
		ExpiresAt:   d.ExpiresAt,
		RevokedAt:   d.RevokedAt,
	}
}

// ToDomainTerminalToken converts a model TerminalToken to a domain TerminalToken
func ToDomainTerminalToken(m models.TerminalToken) domain.TerminalToken {
	return domain.TerminalToken{
		TokenID:     m.TokenID,
		LocationID:  m.LocationID,
		Name:        m.Name,
		TokenHash:   m.TokenHash,
		LastUsedAt:  m.LastUsedAt,
		ExpiresAt:   m.ExpiresAt,
		RevokedAt:   m.RevokedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTerminalTokenSlice converts a slice of model TerminalTokens to domain TerminalTokens
func ToDomainTerminalTokenSlice(ms []models.TerminalToken) []domain.TerminalToken {
	ds := make([]domain.TerminalToken, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTerminalToken(m)
	}
	return ds
}
