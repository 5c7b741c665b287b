package services_test

import (
	"context"
	"testing"
	"time"

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

// Chargebacks and debt recovery are exercised end to end against the
// in-memory store: a tip is attributed first, then reversed, then later
// credits are watched for recovery.
type DebtServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	managerID string
	location  *domain.Location
	alice     *domain.Employee
	bob       *domain.Employee
	pool      *domain.TipPool
	base      time.Time
}

func (suite *DebtServiceTestSuite) SetupTest() {
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

	bob, err := suite.svc.Employee.CreateEmployee(suite.ctx, location.LocationID, dto.CreateEmployeeRequest{
		Name: "Bob",
		Role: domain.RoleServer,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.bob = bob

	suite.base = time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)
	pool, err := suite.svc.Pool.CreatePool(suite.ctx, location.LocationID, dto.CreatePoolRequest{
		Name:      "Friday dinner",
		SplitMode: domain.SplitEqual,
		StartedAt: &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.pool = pool
}

func (suite *DebtServiceTestSuite) joinPool(employeeID string) {
	_, err := suite.svc.Pool.JoinPool(suite.ctx, suite.location.LocationID, suite.pool.PoolID, dto.JoinPoolRequest{
		EmployeeID: employeeID,
		At:         &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)
}

func (suite *DebtServiceTestSuite) attributePoolTip(paymentID string, amountCents int64) *dto.TipAttributionResponse {
	resp, err := suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		CollectedAt: suite.base.Add(time.Hour),
		PoolID:      &suite.pool.PoolID,
	}, suite.managerID)
	suite.Require().NoError(err)
	return resp
}

func (suite *DebtServiceTestSuite) attributeEmployeeTip(paymentID string, employeeID string, amountCents int64) *dto.TipAttributionResponse {
	resp, err := suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		CollectedAt: suite.base.Add(time.Hour),
		EmployeeID:  &employeeID,
	}, suite.managerID)
	suite.Require().NoError(err)
	return resp
}

func (suite *DebtServiceTestSuite) chargeback(paymentID string) *dto.ChargebackResponse {
	resp, err := suite.svc.Debt.HandleChargeback(suite.ctx, suite.location.LocationID, dto.ChargebackRequest{
		PaymentID: paymentID,
		Reason:    "card dispute",
	}, suite.managerID)
	suite.Require().NoError(err)
	return resp
}

func (suite *DebtServiceTestSuite) adjust(employeeID string, amountCents int64, key string) {
	_, err := suite.svc.Ledger.PostAdjustment(suite.ctx, suite.location.LocationID, dto.CreateAdjustmentRequest{
		EmployeeID:     employeeID,
		AmountCents:    amountCents,
		Reason:         "test correction",
		IdempotencyKey: key,
	}, suite.managerID)
	suite.Require().NoError(err)
}

func (suite *DebtServiceTestSuite) balanceCents(employeeID string) int64 {
	account, err := suite.svc.Ledger.GetEmployeeBalance(suite.ctx, suite.location.LocationID, employeeID)
	suite.Require().NoError(err)
	return account.BalanceCents
}

func (suite *DebtServiceTestSuite) debts(employeeID string) []domain.TipDebt {
	debts, err := suite.svc.Debt.ListDebts(suite.ctx, suite.location.LocationID, employeeID, nil)
	suite.Require().NoError(err)
	return debts
}

// --- Test Cases ---

func (suite *DebtServiceTestSuite) TestHandleChargeback_ReversesCreditsAndOpensDebts() {
	suite.joinPool(suite.alice.EmployeeID)
	suite.joinPool(suite.bob.EmployeeID)
	suite.attributePoolTip("pay-cb", 2000)

	resp := suite.chargeback("pay-cb")

	suite.False(resp.Replayed)
	suite.Require().Len(resp.Reversals, 2)
	for _, reversal := range resp.Reversals {
		suite.Equal(int64(-1000), reversal.AmountCents)
		suite.NotEmpty(reversal.EntryID)
	}
	suite.Require().Len(resp.Debts, 2)
	for _, debt := range resp.Debts {
		suite.Equal(int64(1000), debt.OriginalAmountCents)
		suite.Equal(int64(1000), debt.RemainingCents)
		suite.Equal(domain.DebtOpen, debt.Status)
	}

	suite.Equal(int64(0), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(0), suite.balanceCents(suite.bob.EmployeeID))

	aliceDebts := suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(aliceDebts, 1)
	suite.Equal(resp.TransactionID, aliceDebts[0].TransactionID)
}

func (suite *DebtServiceTestSuite) TestHandleChargeback_ReplayReturnsSameOutcome() {
	suite.joinPool(suite.alice.EmployeeID)
	suite.joinPool(suite.bob.EmployeeID)
	suite.attributePoolTip("pay-cb-replay", 2000)

	first := suite.chargeback("pay-cb-replay")
	second := suite.chargeback("pay-cb-replay")

	suite.True(second.Replayed)
	suite.Equal(first.TransactionID, second.TransactionID)
	suite.Equal(first.Reversals, second.Reversals)
	suite.Equal(first.Debts, second.Debts)

	suite.Equal(int64(0), suite.balanceCents(suite.alice.EmployeeID))
	suite.Require().Len(suite.debts(suite.alice.EmployeeID), 1)
	suite.Equal(int64(1000), suite.debts(suite.alice.EmployeeID)[0].RemainingCents)
}

func (suite *DebtServiceTestSuite) TestHandleChargeback_UnknownPayment() {
	_, err := suite.svc.Debt.HandleChargeback(suite.ctx, suite.location.LocationID, dto.ChargebackRequest{
		PaymentID: "pay-never-seen",
	}, suite.managerID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *DebtServiceTestSuite) TestHandleChargeback_HouseShareHasNoDebt() {
	suite.attributeEmployeeTip("pay-house-cb", domain.HouseEmployeeID, 500)

	resp := suite.chargeback("pay-house-cb")

	suite.Require().Len(resp.Reversals, 1)
	suite.Equal(domain.HouseEmployeeID, resp.Reversals[0].EmployeeID)
	suite.Equal(int64(-500), resp.Reversals[0].AmountCents)
	suite.Empty(resp.Debts)

	house, err := suite.svc.Ledger.GetHouseBalance(suite.ctx, suite.location.LocationID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), house.BalanceCents)
}

func (suite *DebtServiceTestSuite) TestRecovery_CreditSiphonedIntoOpenDebt() {
	suite.attributeEmployeeTip("pay-rec", suite.alice.EmployeeID, 3000)
	suite.chargeback("pay-rec")
	suite.Equal(int64(0), suite.balanceCents(suite.alice.EmployeeID))

	// The first credit disappears into the debt entirely.
	suite.adjust(suite.alice.EmployeeID, 1000, "bonus-1")
	suite.Equal(int64(0), suite.balanceCents(suite.alice.EmployeeID))
	debts := suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(debts, 1)
	suite.Equal(int64(2000), debts[0].RemainingCents)
	suite.Equal(domain.DebtOpen, debts[0].Status)

	// The second credit clears the debt and the surplus stays.
	suite.adjust(suite.alice.EmployeeID, 2500, "bonus-2")
	suite.Equal(int64(500), suite.balanceCents(suite.alice.EmployeeID))
	debts = suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(debts, 1)
	suite.Equal(int64(0), debts[0].RemainingCents)
	suite.Equal(domain.DebtRecovered, debts[0].Status)
	suite.NotNil(debts[0].ResolvedAt)
}

func (suite *DebtServiceTestSuite) TestRecovery_OldestDebtFirst() {
	first := suite.attributeEmployeeTip("pay-old", suite.alice.EmployeeID, 3000)
	suite.chargeback("pay-old")
	second := suite.attributeEmployeeTip("pay-new", suite.alice.EmployeeID, 1000)
	suite.chargeback("pay-new")

	suite.adjust(suite.alice.EmployeeID, 3500, "payday")

	suite.Equal(int64(0), suite.balanceCents(suite.alice.EmployeeID))
	byTxn := make(map[string]domain.TipDebt)
	for _, debt := range suite.debts(suite.alice.EmployeeID) {
		byTxn[debt.TransactionID] = debt
	}
	suite.Require().Len(byTxn, 2)
	suite.Equal(domain.DebtRecovered, byTxn[first.TransactionID].Status)
	suite.Equal(int64(0), byTxn[first.TransactionID].RemainingCents)
	suite.Equal(domain.DebtOpen, byTxn[second.TransactionID].Status)
	suite.Equal(int64(500), byTxn[second.TransactionID].RemainingCents)
}

func (suite *DebtServiceTestSuite) TestWriteOffDebt_ForgivesRemainder() {
	suite.attributeEmployeeTip("pay-wo", suite.alice.EmployeeID, 2000)
	suite.chargeback("pay-wo")
	debts := suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(debts, 1)

	written, err := suite.svc.Debt.WriteOffDebt(suite.ctx, suite.location.LocationID, debts[0].DebtID, "guest made whole in cash", suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(domain.DebtWrittenOff, written.Status)
	suite.Equal(int64(0), written.RemainingCents)
	suite.Equal("guest made whole in cash", written.WriteOffReason)
	suite.NotNil(written.ResolvedAt)

	// With the debt forgiven, later credits reach the balance untouched.
	suite.adjust(suite.alice.EmployeeID, 500, "bonus-after")
	suite.Equal(int64(500), suite.balanceCents(suite.alice.EmployeeID))
}

func (suite *DebtServiceTestSuite) TestWriteOffDebt_AlreadyResolved() {
	suite.attributeEmployeeTip("pay-wo-twice", suite.alice.EmployeeID, 1000)
	suite.chargeback("pay-wo-twice")
	debts := suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(debts, 1)

	_, err := suite.svc.Debt.WriteOffDebt(suite.ctx, suite.location.LocationID, debts[0].DebtID, "first", suite.managerID)
	suite.Require().NoError(err)
	_, err = suite.svc.Debt.WriteOffDebt(suite.ctx, suite.location.LocationID, debts[0].DebtID, "second", suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDebtResolved)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *DebtServiceTestSuite) TestGetDebtByID_WrongLocation() {
	suite.attributeEmployeeTip("pay-scope", suite.alice.EmployeeID, 1000)
	suite.chargeback("pay-scope")
	debts := suite.debts(suite.alice.EmployeeID)
	suite.Require().Len(debts, 1)

	other, err := suite.svc.Location.CreateLocation(suite.ctx, dto.CreateLocationRequest{
		Name:         "Uptown",
		Timezone:     "America/Chicago",
		CurrencyCode: "USD",
	}, suite.managerID)
	suite.Require().NoError(err)

	_, err = suite.svc.Debt.GetDebtByID(suite.ctx, other.LocationID, debts[0].DebtID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Run Test Suite ---

func TestDebtService(t *testing.T) {
	suite.Run(t, new(DebtServiceTestSuite))
}
