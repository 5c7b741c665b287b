package services

import (
	"context"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/dto"
)

// DebtReaderSvc defines read operations for chargeback debts
type DebtReaderSvc interface {
	// GetDebtByID retrieves a specific debt by its ID.
	GetDebtByID(ctx context.Context, locationID string, debtID string) (*domain.TipDebt, error)

	// ListDebts retrieves an employee's debts, optionally filtered by status.
	ListDebts(ctx context.Context, locationID string, employeeID string, status *domain.DebtStatus) ([]domain.TipDebt, error)
}

// DebtWriterSvc defines write operations for chargeback debts
type DebtWriterSvc interface {
	// HandleChargeback reverses an attributed tip: every credit entry of the
	// transaction gets an offsetting reversal, and each employee share opens
	// a debt that future credits repay. Replays of the same payment return
	// the original outcome without posting again.
	HandleChargeback(ctx context.Context, locationID string, req dto.ChargebackRequest, actorUserID string) (*dto.ChargebackResponse, error)

	// WriteOffDebt forgives the unrecovered remainder of an open debt.
	WriteOffDebt(ctx context.Context, locationID string, debtID string, reason string, requestingUserID string) (*domain.TipDebt, error)
}

// DebtSvcFacade combines all debt-related service interfaces
type DebtSvcFacade interface {
	DebtReaderSvc
	DebtWriterSvc
}
