package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/core/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stackpos/tipengine/internal/repositories/database/memory"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	managerID string
	location  *domain.Location
	alice     *domain.Employee
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.svc = services.NewServiceContainer(&config.Config{}, memory.NewRepositoryProvider())
	suite.managerID = uuid.NewString()

	location, err := suite.svc.Location.CreateLocation(suite.ctx, dto.CreateLocationRequest{
		Name:         "Downtown",
		Timezone:     "America/New_York",
		CurrencyCode: "USD",
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.location = location

	alice, err := suite.svc.Employee.CreateEmployee(suite.ctx, location.LocationID, dto.CreateEmployeeRequest{
		Name: "Alice",
		Role: domain.RoleServer,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.alice = alice
}

func (suite *LedgerServiceTestSuite) adjust(amountCents int64, key string) *domain.LedgerEntry {
	entry, err := suite.svc.Ledger.PostAdjustment(suite.ctx, suite.location.LocationID, dto.CreateAdjustmentRequest{
		EmployeeID:     suite.alice.EmployeeID,
		AmountCents:    amountCents,
		Reason:         "shift correction",
		IdempotencyKey: key,
	}, suite.managerID)
	suite.Require().NoError(err)
	return entry
}

func (suite *LedgerServiceTestSuite) balance() *domain.LedgerAccount {
	account, err := suite.svc.Ledger.GetEmployeeBalance(suite.ctx, suite.location.LocationID, suite.alice.EmployeeID)
	suite.Require().NoError(err)
	return account
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestPostAdjustment_CreditsAndReplays() {
	entry := suite.adjust(500, "corr-1")

	suite.Equal(int64(500), entry.AmountCents)
	suite.Equal(domain.SourceAdjustment, entry.Source)
	suite.Equal(int64(500), suite.balance().BalanceCents)

	replayed := suite.adjust(500, "corr-1")
	suite.Equal(entry.EntryID, replayed.EntryID)
	suite.Equal(int64(500), suite.balance().BalanceCents)
}

func (suite *LedgerServiceTestSuite) TestPostAdjustment_ZeroAmount() {
	_, err := suite.svc.Ledger.PostAdjustment(suite.ctx, suite.location.LocationID, dto.CreateAdjustmentRequest{
		EmployeeID:     suite.alice.EmployeeID,
		AmountCents:    0,
		Reason:         "noop",
		IdempotencyKey: "corr-zero",
	}, suite.managerID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestPostAdjustment_NegativeAmount() {
	suite.adjust(500, "corr-up")
	suite.adjust(-300, "corr-down")
	suite.Equal(int64(200), suite.balance().BalanceCents)
}

func (suite *LedgerServiceTestSuite) TestPostAdjustment_ConcurrentSameKey() {
	// Racing submissions of one idempotency key must land exactly one entry.
	const workers = 16

	entries := make([]*domain.LedgerEntry, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = suite.svc.Ledger.PostAdjustment(suite.ctx, suite.location.LocationID, dto.CreateAdjustmentRequest{
				EmployeeID:     suite.alice.EmployeeID,
				AmountCents:    700,
				Reason:         "till variance",
				IdempotencyKey: "corr-race",
			}, suite.managerID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		suite.Require().NoError(errs[i])
		suite.Equal(entries[0].EntryID, entries[i].EntryID)
	}

	account := suite.balance()
	suite.Equal(int64(700), account.BalanceCents)

	derived, cached, err := suite.svc.Ledger.RecomputeBalance(suite.ctx, suite.location.LocationID, account.AccountID)
	suite.Require().NoError(err)
	suite.Equal(int64(700), derived)
	suite.Equal(int64(700), cached)
}

func (suite *LedgerServiceTestSuite) TestPostAdjustment_ConcurrentDistinctKeys() {
	const workers = 8

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.svc.Ledger.PostAdjustment(suite.ctx, suite.location.LocationID, dto.CreateAdjustmentRequest{
				EmployeeID:     suite.alice.EmployeeID,
				AmountCents:    100,
				Reason:         "till variance",
				IdempotencyKey: fmt.Sprintf("corr-race-%d", i),
			}, suite.managerID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		suite.Require().NoError(errs[i])
	}

	account := suite.balance()
	suite.Equal(int64(100*workers), account.BalanceCents)

	derived, cached, err := suite.svc.Ledger.RecomputeBalance(suite.ctx, suite.location.LocationID, account.AccountID)
	suite.Require().NoError(err)
	suite.Equal(cached, derived)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_VoidsOriginal() {
	entry := suite.adjust(500, "corr-rev")

	reversal, err := suite.svc.Ledger.ReverseEntry(suite.ctx, suite.location.LocationID, entry.EntryID, "entered twice", suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(int64(-500), reversal.AmountCents)
	suite.Equal(domain.SourceReversal, reversal.Source)
	suite.Equal(entry.EntryID, reversal.SourceID)
	suite.Equal(int64(0), suite.balance().BalanceCents)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_Replay() {
	entry := suite.adjust(500, "corr-rev-replay")

	first, err := suite.svc.Ledger.ReverseEntry(suite.ctx, suite.location.LocationID, entry.EntryID, "dup", suite.managerID)
	suite.Require().NoError(err)
	second, err := suite.svc.Ledger.ReverseEntry(suite.ctx, suite.location.LocationID, entry.EntryID, "dup", suite.managerID)
	suite.Require().NoError(err)

	suite.Equal(first.EntryID, second.EntryID)
	suite.Equal(int64(0), suite.balance().BalanceCents)
}

func (suite *LedgerServiceTestSuite) TestReverseEntry_OfReversal() {
	entry := suite.adjust(500, "corr-rev-rev")
	reversal, err := suite.svc.Ledger.ReverseEntry(suite.ctx, suite.location.LocationID, entry.EntryID, "undo", suite.managerID)
	suite.Require().NoError(err)

	_, err = suite.svc.Ledger.ReverseEntry(suite.ctx, suite.location.LocationID, reversal.EntryID, "undo the undo", suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestRecomputeBalance_MatchesEntries() {
	suite.adjust(500, "corr-a")
	suite.adjust(250, "corr-b")
	suite.adjust(-100, "corr-c")

	account := suite.balance()
	derived, cached, err := suite.svc.Ledger.RecomputeBalance(suite.ctx, suite.location.LocationID, account.AccountID)

	suite.Require().NoError(err)
	suite.Equal(int64(650), derived)
	suite.Equal(int64(650), cached)
}

func (suite *LedgerServiceTestSuite) TestListEntries_PaginatesNewestFirst() {
	suite.adjust(100, "corr-1")
	suite.adjust(200, "corr-2")
	suite.adjust(300, "corr-3")

	page, err := suite.svc.Ledger.ListEntries(suite.ctx, suite.location.LocationID, suite.alice.EmployeeID, dto.ListEntriesParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Require().Len(page.Entries, 2)
	suite.Equal(int64(300), page.Entries[0].AmountCents)
	suite.Equal(int64(200), page.Entries[1].AmountCents)
	suite.Require().NotNil(page.NextToken)

	rest, err := suite.svc.Ledger.ListEntries(suite.ctx, suite.location.LocationID, suite.alice.EmployeeID, dto.ListEntriesParams{Limit: 2, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(rest.Entries, 1)
	suite.Equal(int64(100), rest.Entries[0].AmountCents)
	suite.Nil(rest.NextToken)
}

func (suite *LedgerServiceTestSuite) TestGetEmployeeBalance_NoAccount() {
	_, err := suite.svc.Ledger.GetEmployeeBalance(suite.ctx, suite.location.LocationID, uuid.NewString())
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestEnsureEmployeeAccount_Idempotent() {
	first, err := suite.svc.Ledger.EnsureEmployeeAccount(suite.ctx, suite.location.LocationID, suite.alice.EmployeeID, suite.managerID)
	suite.Require().NoError(err)
	second, err := suite.svc.Ledger.EnsureEmployeeAccount(suite.ctx, suite.location.LocationID, suite.alice.EmployeeID, suite.managerID)
	suite.Require().NoError(err)
	suite.Equal(first.AccountID, second.AccountID)
}

// --- Run Test Suite ---

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
