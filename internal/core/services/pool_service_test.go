package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type PoolServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *portssvc.ServiceContainer
	managerID string
	location  *domain.Location
	alice     *domain.Employee
	bob       *domain.Employee
	pool      *domain.TipPool // EQUAL split, started at base
	base      time.Time
}

func (suite *PoolServiceTestSuite) SetupTest() {
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

func (suite *PoolServiceTestSuite) join(poolID string, employeeID string, at time.Time, weight *decimal.Decimal) (*domain.PoolSegment, error) {
	return suite.svc.Pool.JoinPool(suite.ctx, suite.location.LocationID, poolID, dto.JoinPoolRequest{
		EmployeeID: employeeID,
		Weight:     weight,
		At:         &at,
	}, suite.managerID)
}

func (suite *PoolServiceTestSuite) mustJoin(poolID string, employeeID string, at time.Time) *domain.PoolSegment {
	segment, err := suite.join(poolID, employeeID, at, nil)
	suite.Require().NoError(err)
	return segment
}

func (suite *PoolServiceTestSuite) segments() []domain.PoolSegment {
	segments, err := suite.svc.Pool.ListSegments(suite.ctx, suite.location.LocationID, suite.pool.PoolID)
	suite.Require().NoError(err)
	return segments
}

// --- Test Cases ---

func (suite *PoolServiceTestSuite) TestCreatePool_OpensEmptySegment() {
	segments := suite.segments()

	suite.Require().Len(segments, 1)
	suite.True(segments[0].StartedAt.Equal(suite.base))
	suite.Nil(segments[0].EndedAt)
	suite.Empty(segments[0].Members)
}

func (suite *PoolServiceTestSuite) TestJoinPool_RollsTimeline() {
	t1 := suite.base.Add(10 * time.Minute)
	t2 := suite.base.Add(20 * time.Minute)

	first := suite.mustJoin(suite.pool.PoolID, suite.alice.EmployeeID, t1)
	suite.Require().Len(first.Members, 1)
	suite.True(first.Members[0].Ratio.Equal(decimal.NewFromInt(1)))

	second := suite.mustJoin(suite.pool.PoolID, suite.bob.EmployeeID, t2)
	suite.Require().Len(second.Members, 2)
	for _, member := range second.Members {
		suite.True(member.Ratio.Equal(decimal.NewFromFloat(0.5)))
	}

	// The timeline stays gap free: each segment ends exactly where the next
	// one starts.
	segments := suite.segments()
	suite.Require().Len(segments, 3)
	for i := 0; i < len(segments)-1; i++ {
		suite.Require().NotNil(segments[i].EndedAt)
		suite.True(segments[i].EndedAt.Equal(segments[i+1].StartedAt))
	}
	suite.Nil(segments[len(segments)-1].EndedAt)
	suite.Empty(segments[0].Members)
	suite.Len(segments[1].Members, 1)
	suite.Len(segments[2].Members, 2)
}

func (suite *PoolServiceTestSuite) TestJoinPool_AlreadyMember() {
	t1 := suite.base.Add(10 * time.Minute)
	suite.mustJoin(suite.pool.PoolID, suite.alice.EmployeeID, t1)

	_, err := suite.join(suite.pool.PoolID, suite.alice.EmployeeID, t1.Add(time.Minute), nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyMember)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *PoolServiceTestSuite) TestJoinPool_Backdated() {
	t1 := suite.base.Add(10 * time.Minute)
	suite.mustJoin(suite.pool.PoolID, suite.alice.EmployeeID, t1)

	_, err := suite.join(suite.pool.PoolID, suite.bob.EmployeeID, t1.Add(-time.Minute), nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrBackdatedRequest)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PoolServiceTestSuite) TestJoinPool_NonPositiveWeight() {
	zero := decimal.Zero
	_, err := suite.join(suite.pool.PoolID, suite.alice.EmployeeID, suite.base.Add(time.Minute), &zero)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNegativeWeight)
}

func (suite *PoolServiceTestSuite) TestJoinPool_EndedPool() {
	_, err := suite.svc.Pool.EndPool(suite.ctx, suite.location.LocationID, suite.pool.PoolID, dto.EndPoolRequest{}, suite.managerID)
	suite.Require().NoError(err)

	_, err = suite.join(suite.pool.PoolID, suite.alice.EmployeeID, suite.base.Add(time.Minute), nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPoolClosed)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PoolServiceTestSuite) TestLeavePool_FreezesHistory() {
	t1 := suite.base.Add(10 * time.Minute)
	t2 := suite.base.Add(60 * time.Minute)
	suite.mustJoin(suite.pool.PoolID, suite.alice.EmployeeID, t1)
	suite.mustJoin(suite.pool.PoolID, suite.bob.EmployeeID, t1.Add(time.Minute))

	after, err := suite.svc.Pool.LeavePool(suite.ctx, suite.location.LocationID, suite.pool.PoolID, dto.LeavePoolRequest{
		EmployeeID: suite.alice.EmployeeID,
		At:         &t2,
	}, suite.managerID)
	suite.Require().NoError(err)
	suite.Require().Len(after.Members, 1)
	suite.Equal(suite.bob.EmployeeID, after.Members[0].EmployeeID)

	// The instant before the leave still resolves to the two-member snapshot.
	before, err := suite.svc.Pool.SegmentAt(suite.ctx, suite.location.LocationID, suite.pool.PoolID, t2.Add(-time.Minute))
	suite.Require().NoError(err)
	suite.Len(before.Members, 2)
	for _, member := range before.Members {
		suite.True(member.Ratio.Equal(decimal.NewFromFloat(0.5)))
	}
}

func (suite *PoolServiceTestSuite) TestLeavePool_NotMember() {
	_, err := suite.svc.Pool.LeavePool(suite.ctx, suite.location.LocationID, suite.pool.PoolID, dto.LeavePoolRequest{
		EmployeeID: suite.alice.EmployeeID,
	}, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotMember)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PoolServiceTestSuite) TestEndPool_ClosesTimeline() {
	t1 := suite.base.Add(10 * time.Minute)
	t3 := suite.base.Add(4 * time.Hour)
	suite.mustJoin(suite.pool.PoolID, suite.alice.EmployeeID, t1)

	ended, err := suite.svc.Pool.EndPool(suite.ctx, suite.location.LocationID, suite.pool.PoolID, dto.EndPoolRequest{At: &t3}, suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(domain.PoolEnded, ended.Status)
	suite.Require().NotNil(ended.EndedAt)
	suite.True(ended.EndedAt.Equal(t3))

	// History resolves; instants past the end do not.
	_, err = suite.svc.Pool.SegmentAt(suite.ctx, suite.location.LocationID, suite.pool.PoolID, t1.Add(time.Minute))
	suite.Require().NoError(err)
	_, err = suite.svc.Pool.SegmentAt(suite.ctx, suite.location.LocationID, suite.pool.PoolID, t3.Add(time.Minute))
	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNoActiveSegment)
}

func (suite *PoolServiceTestSuite) TestWeightedPool_RatiosFrozenAtRoll() {
	weighted, err := suite.svc.Pool.CreatePool(suite.ctx, suite.location.LocationID, dto.CreatePoolRequest{
		Name:      "Bar pool",
		SplitMode: domain.SplitWeighted,
		StartedAt: &suite.base,
	}, suite.managerID)
	suite.Require().NoError(err)

	t1 := suite.base.Add(10 * time.Minute)
	t2 := suite.base.Add(20 * time.Minute)
	t3 := suite.base.Add(3 * time.Hour)

	one := decimal.NewFromInt(1)
	three := decimal.NewFromInt(3)
	_, err = suite.join(weighted.PoolID, suite.alice.EmployeeID, t1, &one)
	suite.Require().NoError(err)
	both, err := suite.join(weighted.PoolID, suite.bob.EmployeeID, t2, &three)
	suite.Require().NoError(err)

	suite.Require().Len(both.Members, 2)
	byEmployee := make(map[string]domain.SegmentMember)
	for _, member := range both.Members {
		byEmployee[member.EmployeeID] = member
	}
	suite.True(byEmployee[suite.alice.EmployeeID].Ratio.Equal(decimal.NewFromFloat(0.25)))
	suite.True(byEmployee[suite.bob.EmployeeID].Ratio.Equal(decimal.NewFromFloat(0.75)))

	_, err = suite.svc.Pool.LeavePool(suite.ctx, suite.location.LocationID, weighted.PoolID, dto.LeavePoolRequest{
		EmployeeID: suite.bob.EmployeeID,
		At:         &t3,
	}, suite.managerID)
	suite.Require().NoError(err)

	// Bob's departure rolls a new segment; the old snapshot keeps its ratios.
	frozen, err := suite.svc.Pool.SegmentAt(suite.ctx, suite.location.LocationID, weighted.PoolID, t2.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Require().Len(frozen.Members, 2)
	current, err := suite.svc.Pool.SegmentAt(suite.ctx, suite.location.LocationID, weighted.PoolID, t3.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Require().Len(current.Members, 1)
	suite.True(current.Members[0].Ratio.Equal(decimal.NewFromInt(1)))
}

// --- Run Test Suite ---

func TestPoolService(t *testing.T) {
	suite.Run(t, new(PoolServiceTestSuite))
}
