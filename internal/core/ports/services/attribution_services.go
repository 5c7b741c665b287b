package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/dto"
)

// AttributionSvcFacade turns incoming tip events into ledger postings.
type AttributionSvcFacade interface {
	// AttributeTip resolves the tip's target, splits the amount, posts every
	// member credit in one atomic unit, then applies tip-out rules and banks
	// shares for off-duty members. Replays of the same payment return the
	// original outcome without posting again.
	AttributeTip(ctx context.Context, locationID string, req dto.AttributeTipRequest, actorUserID string) (*dto.TipAttributionResponse, error)
}
