package domain_test

import (
	"testing"

	"github.com/stackpos/tipengine/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEntrySource_RecoverableSource(t *testing.T) {
	tests := []struct {
		source domain.EntrySource
		want   bool
	}{
		{domain.SourceTipTransaction, true},
		{domain.SourceTipOut, true},
		{domain.SourceBankCollection, true},
		{domain.SourceAdjustment, true},
		// Recovery entries and reversals must not trigger further recovery,
		// or a written-off debt could feed on its own repayments.
		{domain.SourceDebtRecovery, false},
		{domain.SourceReversal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.RecoverableSource())
		})
	}
}
