package mapping

import (
	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stackpos/tipengine/internal/models"
)

// ToModelLedgerAccount converts a domain LedgerAccount to a model LedgerAccount
func ToModelLedgerAccount(d domain.LedgerAccount) models.LedgerAccount {
	return models.LedgerAccount{
		AccountID:    d.AccountID,
		LocationID:   d.LocationID,
		EmployeeID:   d.EmployeeID,
		Kind:         models.AccountKind(d.Kind),
		BalanceCents: d.BalanceCents,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerAccount converts a model LedgerAccount to a domain LedgerAccount
func ToDomainLedgerAccount(m models.LedgerAccount) domain.LedgerAccount {
	return domain.LedgerAccount{
		AccountID:    m.AccountID,
		LocationID:   m.LocationID,
		EmployeeID:   m.EmployeeID,
		Kind:         domain.AccountKind(m.Kind),
		BalanceCents: m.BalanceCents,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:        d.EntryID,
		AccountID:      d.AccountID,
		AmountCents:    d.AmountCents,
		Source:         models.EntrySource(d.Source),
		SourceID:       d.SourceID,
		IdempotencyKey: d.IdempotencyKey,
		Memo:           d.Memo,
		CreatedAt:      d.CreatedAt,
		CreatedBy:      d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:        m.EntryID,
		AccountID:      m.AccountID,
		AmountCents:    m.AmountCents,
		Source:         domain.EntrySource(m.Source),
		SourceID:       m.SourceID,
		IdempotencyKey: m.IdempotencyKey,
		Memo:           m.Memo,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}

// ToModelTipTransaction converts a domain TipTransaction to a model TipTransaction
func ToModelTipTransaction(d domain.TipTransaction) models.TipTransaction {
	return models.TipTransaction{
		TransactionID: d.TransactionID,
		LocationID:    d.LocationID,
		PaymentID:     d.PaymentID,
		AmountCents:   d.AmountCents,
		SalesCents:    d.SalesCents,
		Target:        models.TipTarget(d.Target),
		PoolID:        d.PoolID,
		SegmentID:     d.SegmentID,
		EmployeeID:    d.EmployeeID,
		Status:        models.TipTransactionStatus(d.Status),
		CollectedAt:   d.CollectedAt,
		ReversedAt:    d.ReversedAt,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTipTransaction converts a model TipTransaction to a domain TipTransaction
func ToDomainTipTransaction(m models.TipTransaction) domain.TipTransaction {
	return domain.TipTransaction{
		TransactionID: m.TransactionID,
		LocationID:    m.LocationID,
		PaymentID:     m.PaymentID,
		AmountCents:   m.AmountCents,
		SalesCents:    m.SalesCents,
		Target:        domain.TipTarget(m.Target),
		PoolID:        m.PoolID,
		SegmentID:     m.SegmentID,
		EmployeeID:    m.EmployeeID,
		Status:        domain.TipTransactionStatus(m.Status),
		CollectedAt:   m.CollectedAt,
		ReversedAt:    m.ReversedAt,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelTipDebt converts a domain TipDebt to a model TipDebt
func ToModelTipDebt(d domain.TipDebt) models.TipDebt {
	return models.TipDebt{
		DebtID:              d.DebtID,
		AccountID:           d.AccountID,
		EmployeeID:          d.EmployeeID,
		TransactionID:       d.TransactionID,
		OriginalAmountCents: d.OriginalAmountCents,
		RemainingCents:      d.RemainingCents,
		Status:              models.TipDebtStatus(d.Status),
		WriteOffReason:      d.WriteOffReason,
		ResolvedAt:          d.ResolvedAt,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTipDebt converts a model TipDebt to a domain TipDebt
func ToDomainTipDebt(m models.TipDebt) domain.TipDebt {
	return domain.TipDebt{
		DebtID:              m.DebtID,
		AccountID:           m.AccountID,
		EmployeeID:          m.EmployeeID,
		TransactionID:       m.TransactionID,
		OriginalAmountCents: m.OriginalAmountCents,
		RemainingCents:      m.RemainingCents,
		Status:              domain.DebtStatus(m.Status),
		WriteOffReason:      m.WriteOffReason,
		ResolvedAt:          m.ResolvedAt,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTipDebtSlice converts a slice of model TipDebts to domain TipDebts
func ToDomainTipDebtSlice(ms []models.TipDebt) []domain.TipDebt {
	ds := make([]domain.TipDebt, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTipDebt(m)
	}
	return ds
}

// ToModelBankedShare converts a domain BankedShare to a model BankedShare
func ToModelBankedShare(d domain.BankedShare) models.BankedShare {
	return models.BankedShare{
		ShareID:        d.ShareID,
		LocationID:     d.LocationID,
		EmployeeID:     d.EmployeeID,
		AmountCents:    d.AmountCents,
		Source:         models.EntrySource(d.Source),
		SourceID:       d.SourceID,
		IdempotencyKey: d.IdempotencyKey,
		Status:         models.BankedShareStatus(d.Status),
		EntryID:        d.EntryID,
		PayrollRef:     d.PayrollRef,
		ResolvedAt:     d.ResolvedAt,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankedShare converts a model BankedShare to a domain BankedShare
func ToDomainBankedShare(m models.BankedShare) domain.BankedShare {
	return domain.BankedShare{
		ShareID:        m.ShareID,
		LocationID:     m.LocationID,
		EmployeeID:     m.EmployeeID,
		AmountCents:    m.AmountCents,
		Source:         domain.EntrySource(m.Source),
		SourceID:       m.SourceID,
		IdempotencyKey: m.IdempotencyKey,
		Status:         domain.BankedShareStatus(m.Status),
		EntryID:        m.EntryID,
		PayrollRef:     m.PayrollRef,
		ResolvedAt:     m.ResolvedAt,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBankedShareSlice converts a slice of model BankedShares to domain BankedShares
func ToDomainBankedShareSlice(ms []models.BankedShare) []domain.BankedShare {
	ds := make([]domain.BankedShare, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankedShare(m)
	}
	return ds
}
