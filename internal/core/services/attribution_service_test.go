package services_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/core/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stackpos/tipengine/internal/repositories/database/memory"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

// The attribution suite runs against the in-memory store: the interesting
// assertions are about what ends up in the ledger after the full fan-out,
// across several posting units.
type AttributionServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	cfg       *config.Config
	repos     portsrepo.RepositoryProvider
	svc       *portssvc.ServiceContainer
	managerID string
	location  *domain.Location
	alice     *domain.Employee // SERVER
	bob       *domain.Employee // SERVER
	carol     *domain.Employee // BARTENDER
	pool      *domain.TipPool  // EQUAL split, started at base
	base      time.Time
}

func (suite *AttributionServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.cfg = &config.Config{}
	suite.repos = memory.NewRepositoryProvider()
	suite.svc = services.NewServiceContainer(suite.cfg, suite.repos)
	suite.managerID = uuid.NewString()

	location, err := suite.svc.Location.CreateLocation(suite.ctx, dto.CreateLocationRequest{
		Name:         "Downtown",
		Timezone:     "America/New_York",
		CurrencyCode: "USD",
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.location = location

	suite.alice = suite.createEmployee("Alice", domain.RoleServer)
	suite.bob = suite.createEmployee("Bob", domain.RoleServer)
	suite.carol = suite.createEmployee("Carol", domain.RoleBartender)

	suite.base = time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)
	pool, err := suite.svc.Pool.CreatePool(suite.ctx, location.LocationID, dto.CreatePoolRequest{
		Name:      "Friday dinner",
		SplitMode: domain.SplitEqual,
		StartedAt: &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.pool = pool
}

func (suite *AttributionServiceTestSuite) createEmployee(name string, role domain.Role) *domain.Employee {
	employee, err := suite.svc.Employee.CreateEmployee(suite.ctx, suite.location.LocationID, dto.CreateEmployeeRequest{
		Name: name,
		Role: role,
	}, suite.managerID)
	suite.Require().NoError(err)
	return employee
}

func (suite *AttributionServiceTestSuite) joinPool(poolID string, employeeID string, at time.Time) {
	_, err := suite.svc.Pool.JoinPool(suite.ctx, suite.location.LocationID, poolID, dto.JoinPoolRequest{
		EmployeeID: employeeID,
		At:         &at,
	}, suite.managerID)
	suite.Require().NoError(err)
}

func (suite *AttributionServiceTestSuite) clockIn(employeeID string) {
	_, err := suite.svc.Shift.ClockIn(suite.ctx, suite.location.LocationID, dto.ClockInRequest{
		EmployeeID: employeeID,
	}, suite.managerID)
	suite.Require().NoError(err)
}

func (suite *AttributionServiceTestSuite) createRule(from domain.Role, to domain.Role, basisPoints int32) *domain.TipOutRule {
	rule, err := suite.svc.TipOut.CreateRule(suite.ctx, suite.location.LocationID, dto.CreateTipOutRuleRequest{
		FromRole:    from,
		ToRole:      to,
		BasisPoints: basisPoints,
		Basis:       domain.BasisTips,
	}, suite.managerID)
	suite.Require().NoError(err)
	return rule
}

func (suite *AttributionServiceTestSuite) attributePoolTip(paymentID string, amountCents int64, at time.Time) (*dto.TipAttributionResponse, error) {
	return suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		CollectedAt: at,
		PoolID:      &suite.pool.PoolID,
	}, suite.managerID)
}

func (suite *AttributionServiceTestSuite) attributeEmployeeTip(paymentID string, employeeID string, amountCents int64) (*dto.TipAttributionResponse, error) {
	return suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		CollectedAt: suite.base.Add(time.Hour),
		EmployeeID:  &employeeID,
	}, suite.managerID)
}

func (suite *AttributionServiceTestSuite) balanceCents(employeeID string) int64 {
	account, err := suite.svc.Ledger.GetEmployeeBalance(suite.ctx, suite.location.LocationID, employeeID)
	suite.Require().NoError(err)
	return account.BalanceCents
}

func (suite *AttributionServiceTestSuite) houseBalanceCents() int64 {
	account, err := suite.svc.Ledger.GetHouseBalance(suite.ctx, suite.location.LocationID)
	suite.Require().NoError(err)
	return account.BalanceCents
}

// --- Test Cases ---

func (suite *AttributionServiceTestSuite) TestAttributeTip_EqualSplitTwoWays() {
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.bob.EmployeeID, suite.base)

	resp, err := suite.attributePoolTip("pay-2000", 2000, suite.base.Add(time.Hour))

	suite.Require().NoError(err)
	suite.Equal(domain.TargetPool, resp.Target)
	suite.Equal(suite.pool.PoolID, resp.PoolID)
	suite.NotEmpty(resp.SegmentID)
	suite.False(resp.Replayed)
	suite.Require().Len(resp.Shares, 2)
	for _, share := range resp.Shares {
		suite.Equal(int64(1000), share.AmountCents)
		suite.NotEmpty(share.EntryID)
	}
	suite.Equal(int64(1000), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(1000), suite.balanceCents(suite.bob.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_EqualSplitThreeWays() {
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.bob.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.carol.EmployeeID, suite.base)

	resp, err := suite.attributePoolTip("pay-1500", 1500, suite.base.Add(time.Hour))

	suite.Require().NoError(err)
	suite.Require().Len(resp.Shares, 3)
	var total int64
	for _, share := range resp.Shares {
		suite.Equal(int64(500), share.AmountCents)
		total += share.AmountCents
	}
	suite.Equal(int64(1500), total)
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_RemainderCentsFollowEmployeeOrder() {
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.bob.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.carol.EmployeeID, suite.base)

	resp, err := suite.attributePoolTip("pay-1001", 1001, suite.base.Add(time.Hour))

	suite.Require().NoError(err)
	suite.Require().Len(resp.Shares, 3)

	// Shares come back ordered by employee id; the first two absorb the
	// leftover cents.
	ids := []string{suite.alice.EmployeeID, suite.bob.EmployeeID, suite.carol.EmployeeID}
	sort.Strings(ids)
	expected := []int64{334, 334, 333}
	for i, share := range resp.Shares {
		suite.Equal(ids[i], share.EmployeeID)
		suite.Equal(expected[i], share.AmountCents)
	}
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_WeightedSplit() {
	weighted, err := suite.svc.Pool.CreatePool(suite.ctx, suite.location.LocationID, dto.CreatePoolRequest{
		Name:      "Bar pool",
		SplitMode: domain.SplitWeighted,
		StartedAt: &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)

	three := decimal.NewFromInt(3)
	_, err = suite.svc.Pool.JoinPool(suite.ctx, suite.location.LocationID, weighted.PoolID, dto.JoinPoolRequest{
		EmployeeID: suite.alice.EmployeeID,
		Weight:     &three,
		At:         &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.joinPool(weighted.PoolID, suite.bob.EmployeeID, suite.base)

	resp, err := suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   "pay-weighted",
		AmountCents: 2000,
		CollectedAt: suite.base.Add(time.Hour),
		PoolID:      &weighted.PoolID,
	}, suite.managerID)

	suite.Require().NoError(err)
	suite.Require().Len(resp.Shares, 2)
	suite.Equal(int64(1500), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(500), suite.balanceCents(suite.bob.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_ReplayReturnsOriginalOutcome() {
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.bob.EmployeeID, suite.base)

	first, err := suite.attributePoolTip("pay-replay", 2000, suite.base.Add(time.Hour))
	suite.Require().NoError(err)
	second, err := suite.attributePoolTip("pay-replay", 2000, suite.base.Add(time.Hour))
	suite.Require().NoError(err)

	suite.True(second.Replayed)
	suite.Equal(first.TransactionID, second.TransactionID)
	suite.Equal(first.Shares, second.Shares)
	suite.Equal(int64(1000), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(1000), suite.balanceCents(suite.bob.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_DirectEmployee() {
	resp, err := suite.attributeEmployeeTip("pay-direct", suite.alice.EmployeeID, 700)

	suite.Require().NoError(err)
	suite.Equal(domain.TargetEmployee, resp.Target)
	suite.Require().Len(resp.Shares, 1)
	suite.Equal(suite.alice.EmployeeID, resp.Shares[0].EmployeeID)
	suite.Equal(int64(700), resp.Shares[0].AmountCents)
	suite.Equal(int64(700), suite.balanceCents(suite.alice.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_HouseTarget() {
	resp, err := suite.attributeEmployeeTip("pay-house", domain.HouseEmployeeID, 500)

	suite.Require().NoError(err)
	suite.Equal(domain.TargetHouse, resp.Target)
	suite.Require().Len(resp.Shares, 1)
	suite.Equal(domain.HouseEmployeeID, resp.Shares[0].EmployeeID)
	suite.Empty(resp.TipOuts)
	suite.Equal(int64(500), suite.houseBalanceCents())
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_AmbiguousTarget() {
	_, err := suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   "pay-both",
		AmountCents: 100,
		CollectedAt: suite.base,
		PoolID:      &suite.pool.PoolID,
		EmployeeID:  &suite.alice.EmployeeID,
	}, suite.managerID)
	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAmbiguousTarget)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   "pay-neither",
		AmountCents: 100,
		CollectedAt: suite.base,
	}, suite.managerID)
	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAmbiguousTarget)
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_NonPositiveAmount() {
	_, err := suite.attributeEmployeeTip("pay-zero", suite.alice.EmployeeID, 0)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_BeforePoolStart() {
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)

	_, err := suite.attributePoolTip("pay-early", 1000, suite.base.Add(-time.Hour))

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrSegmentNotFound)
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_EmptySegment() {
	_, err := suite.attributePoolTip("pay-empty", 1000, suite.base.Add(time.Hour))

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEmptyPool)
	suite.Equal(int64(0), suite.houseBalanceCents())
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_EmptySegmentHouseFallback() {
	fallbackCfg := &config.Config{HouseFallbackOnEmptyPool: true}
	svc := services.NewServiceContainer(fallbackCfg, suite.repos)

	resp, err := svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   "pay-fallback",
		AmountCents: 1000,
		CollectedAt: suite.base.Add(time.Hour),
		PoolID:      &suite.pool.PoolID,
	}, suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(domain.TargetPool, resp.Target)
	suite.NotEmpty(resp.SegmentID)
	suite.Require().Len(resp.Shares, 1)
	suite.Equal(domain.HouseEmployeeID, resp.Shares[0].EmployeeID)
	suite.Equal(int64(1000), suite.houseBalanceCents())
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_TipOutOnDutyRecipient() {
	rule := suite.createRule(domain.RoleServer, domain.RoleBartender, 1000) // 10% of tips
	suite.clockIn(suite.carol.EmployeeID)

	resp, err := suite.attributeEmployeeTip("pay-tipout", suite.alice.EmployeeID, 2000)

	suite.Require().NoError(err)
	suite.Require().Len(resp.TipOuts, 1)
	transfer := resp.TipOuts[0]
	suite.Equal(rule.RuleID, transfer.RuleID)
	suite.Equal(suite.alice.EmployeeID, transfer.FromEmployeeID)
	suite.Equal(suite.carol.EmployeeID, transfer.ToEmployeeID)
	suite.Equal(int64(200), transfer.AmountCents)
	suite.False(transfer.Banked)

	suite.Equal(int64(1800), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(200), suite.balanceCents(suite.carol.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_TipOutBankedWhenRoleOffDuty() {
	suite.createRule(domain.RoleServer, domain.RoleBartender, 1000)

	resp, err := suite.attributeEmployeeTip("pay-banked", suite.alice.EmployeeID, 2000)

	suite.Require().NoError(err)
	suite.Require().Len(resp.TipOuts, 1)
	suite.True(resp.TipOuts[0].Banked)
	suite.NotEmpty(resp.TipOuts[0].BankedShareID)

	// The earner is debited immediately; the bartender's cut waits as a
	// pending share instead of a ledger credit.
	suite.Equal(int64(1800), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(0), suite.balanceCents(suite.carol.EmployeeID))

	pending := domain.SharePending
	shares, err := suite.svc.Bank.ListShares(suite.ctx, suite.location.LocationID, suite.carol.EmployeeID, &pending)
	suite.Require().NoError(err)
	suite.Require().Len(shares, 1)
	suite.Equal(int64(200), shares[0].AmountCents)
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_TipOutReplayDoesNotDoublePost() {
	suite.createRule(domain.RoleServer, domain.RoleBartender, 1000)
	suite.clockIn(suite.carol.EmployeeID)

	first, err := suite.attributeEmployeeTip("pay-tipout-replay", suite.alice.EmployeeID, 2000)
	suite.Require().NoError(err)
	second, err := suite.attributeEmployeeTip("pay-tipout-replay", suite.alice.EmployeeID, 2000)
	suite.Require().NoError(err)

	suite.True(second.Replayed)
	suite.Equal(first.TipOuts, second.TipOuts)
	suite.Equal(int64(1800), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(200), suite.balanceCents(suite.carol.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_PoolSharesEachTipOut() {
	rule := suite.createRule(domain.RoleServer, domain.RoleBartender, 1000)
	suite.clockIn(suite.carol.EmployeeID)
	suite.joinPool(suite.pool.PoolID, suite.alice.EmployeeID, suite.base)
	suite.joinPool(suite.pool.PoolID, suite.bob.EmployeeID, suite.base)

	resp, err := suite.attributePoolTip("pay-pool-tipout", 2000, suite.base.Add(time.Hour))

	suite.Require().NoError(err)
	suite.Require().Len(resp.TipOuts, 2)
	for _, transfer := range resp.TipOuts {
		suite.Equal(rule.RuleID, transfer.RuleID)
		suite.Equal(suite.carol.EmployeeID, transfer.ToEmployeeID)
		suite.Equal(int64(100), transfer.AmountCents)
	}
	suite.Equal(int64(900), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(900), suite.balanceCents(suite.bob.EmployeeID))
	suite.Equal(int64(200), suite.balanceCents(suite.carol.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_SalesBasisCappedByTipShare() {
	dave := suite.createEmployee("Dave", domain.RoleBusser)
	suite.clockIn(dave.EmployeeID)
	_, err := suite.svc.TipOut.CreateRule(suite.ctx, suite.location.LocationID, dto.CreateTipOutRuleRequest{
		FromRole:       domain.RoleServer,
		ToRole:         domain.RoleBusser,
		BasisPoints:    100, // 1% of sales
		Basis:          domain.BasisSales,
		MaxBasisPoints: 500, // capped at 5% of the tip share
	}, suite.managerID)
	suite.Require().NoError(err)

	_, err = suite.svc.Attribution.AttributeTip(suite.ctx, suite.location.LocationID, dto.AttributeTipRequest{
		PaymentID:   "pay-sales",
		AmountCents: 1000,
		SalesCents:  100000,
		CollectedAt: suite.base.Add(time.Hour),
		EmployeeID:  &suite.alice.EmployeeID,
	}, suite.managerID)

	suite.Require().NoError(err)
	// 1% of sales is 1000, but the cap limits the tip-out to 50.
	suite.Equal(int64(950), suite.balanceCents(suite.alice.EmployeeID))
	suite.Equal(int64(50), suite.balanceCents(dave.EmployeeID))
}

func (suite *AttributionServiceTestSuite) TestAttributeTip_NoRecipientsRuleDoesNotFire() {
	suite.createRule(domain.RoleServer, domain.RoleExpo, 1000)

	resp, err := suite.attributeEmployeeTip("pay-no-expo", suite.alice.EmployeeID, 2000)

	suite.Require().NoError(err)
	suite.Empty(resp.TipOuts)
	suite.Equal(int64(2000), suite.balanceCents(suite.alice.EmployeeID))
}

// --- Run Test Suite ---

func TestAttributionService(t *testing.T) {
	suite.Run(t, new(AttributionServiceTestSuite))
}
