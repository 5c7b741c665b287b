package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/core/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock TipOutRuleRepository ---
type MockTipOutRuleRepository struct {
	mock.Mock
}

// Ensure MockTipOutRuleRepository implements portsrepo.TipOutRuleRepositoryFacade
var _ portsrepo.TipOutRuleRepositoryFacade = (*MockTipOutRuleRepository)(nil)

func (m *MockTipOutRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.TipOutRule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TipOutRule), args.Error(1)
}

func (m *MockTipOutRuleRepository) ListRulesByLocation(ctx context.Context, locationID string, activeOnly bool) ([]domain.TipOutRule, error) {
	args := m.Called(ctx, locationID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TipOutRule), args.Error(1)
}

func (m *MockTipOutRuleRepository) SaveRule(ctx context.Context, rule domain.TipOutRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockTipOutRuleRepository) UpdateRule(ctx context.Context, rule domain.TipOutRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// --- Test Suite Setup ---

type TipOutServiceTestSuite struct {
	suite.Suite
	mockRuleRepo *MockTipOutRuleRepository
	service      portssvc.TipOutSvcFacade
	locationID   string
	managerID    string
	rule         domain.TipOutRule
}

func (suite *TipOutServiceTestSuite) SetupTest() {
	suite.mockRuleRepo = new(MockTipOutRuleRepository)
	suite.service = services.NewTipOutService(suite.mockRuleRepo)

	suite.locationID = uuid.NewString()
	suite.managerID = uuid.NewString()
	suite.rule = domain.TipOutRule{
		RuleID:      uuid.NewString(),
		LocationID:  suite.locationID,
		FromRole:    domain.RoleServer,
		ToRole:      domain.RoleBusser,
		BasisPoints: 300,
		Basis:       domain.BasisTips,
		IsActive:    true,
	}
}

// --- Test Cases ---

func (suite *TipOutServiceTestSuite) TestCreateRule_Success() {
	ctx := context.Background()
	req := dto.CreateTipOutRuleRequest{
		FromRole:    domain.RoleServer,
		ToRole:      domain.RoleBartender,
		BasisPoints: 500,
		Basis:       domain.BasisTips,
	}

	suite.mockRuleRepo.On("SaveRule", ctx, mock.AnythingOfType("domain.TipOutRule")).Return(nil).Once()

	rule, err := suite.service.CreateRule(ctx, suite.locationID, req, suite.managerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(rule)
	suite.NotEmpty(rule.RuleID)
	suite.Equal(suite.locationID, rule.LocationID)
	suite.Equal(domain.RoleServer, rule.FromRole)
	suite.Equal(domain.RoleBartender, rule.ToRole)
	suite.Equal(int32(500), rule.BasisPoints)
	suite.Equal(domain.BasisTips, rule.Basis)
	suite.True(rule.IsActive)
	suite.Equal(suite.managerID, rule.CreatedBy)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *TipOutServiceTestSuite) TestCreateRule_SameRole() {
	ctx := context.Background()
	req := dto.CreateTipOutRuleRequest{
		FromRole:    domain.RoleServer,
		ToRole:      domain.RoleServer,
		BasisPoints: 500,
		Basis:       domain.BasisTips,
	}

	_, err := suite.service.CreateRule(ctx, suite.locationID, req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrSameRole)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRuleRepo.AssertNotCalled(suite.T(), "SaveRule", mock.Anything, mock.Anything)
}

func (suite *TipOutServiceTestSuite) TestCreateRule_SaveFails() {
	ctx := context.Background()
	req := dto.CreateTipOutRuleRequest{
		FromRole:    domain.RoleBartender,
		ToRole:      domain.RoleBusser,
		BasisPoints: 200,
		Basis:       domain.BasisSales,
	}

	dbErr := errors.New("connection reset")
	suite.mockRuleRepo.On("SaveRule", ctx, mock.AnythingOfType("domain.TipOutRule")).Return(dbErr).Once()

	_, err := suite.service.CreateRule(ctx, suite.locationID, req, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, dbErr)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *TipOutServiceTestSuite) TestUpdateRule_PatchesFields() {
	ctx := context.Background()
	stored := suite.rule
	newRate := int32(750)
	inactive := false
	req := dto.UpdateTipOutRuleRequest{
		BasisPoints: &newRate,
		IsActive:    &inactive,
	}

	suite.mockRuleRepo.On("FindRuleByID", ctx, stored.RuleID).Return(&stored, nil).Once()
	suite.mockRuleRepo.On("UpdateRule", ctx, mock.AnythingOfType("domain.TipOutRule")).Return(nil).Once()

	updated, err := suite.service.UpdateRule(ctx, suite.locationID, stored.RuleID, req, suite.managerID)

	suite.Require().NoError(err)
	suite.Equal(int32(750), updated.BasisPoints)
	suite.False(updated.IsActive)
	suite.Equal(stored.MaxBasisPoints, updated.MaxBasisPoints) // untouched
	suite.Equal(suite.managerID, updated.LastUpdatedBy)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *TipOutServiceTestSuite) TestUpdateRule_WrongLocation() {
	ctx := context.Background()
	stored := suite.rule
	stored.LocationID = uuid.NewString()
	newRate := int32(100)

	suite.mockRuleRepo.On("FindRuleByID", ctx, stored.RuleID).Return(&stored, nil).Once()

	_, err := suite.service.UpdateRule(ctx, suite.locationID, stored.RuleID, dto.UpdateTipOutRuleRequest{BasisPoints: &newRate}, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRuleRepo.AssertNotCalled(suite.T(), "UpdateRule", mock.Anything, mock.Anything)
}

func (suite *TipOutServiceTestSuite) TestGetRuleByID_Success() {
	ctx := context.Background()
	stored := suite.rule

	suite.mockRuleRepo.On("FindRuleByID", ctx, stored.RuleID).Return(&stored, nil).Once()

	rule, err := suite.service.GetRuleByID(ctx, suite.locationID, stored.RuleID)

	suite.Require().NoError(err)
	suite.Equal(stored.RuleID, rule.RuleID)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *TipOutServiceTestSuite) TestGetRuleByID_WrongLocation() {
	ctx := context.Background()
	stored := suite.rule
	stored.LocationID = uuid.NewString()

	suite.mockRuleRepo.On("FindRuleByID", ctx, stored.RuleID).Return(&stored, nil).Once()

	_, err := suite.service.GetRuleByID(ctx, suite.locationID, stored.RuleID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *TipOutServiceTestSuite) TestListRules_ActiveOnly() {
	ctx := context.Background()
	rules := []domain.TipOutRule{suite.rule}

	suite.mockRuleRepo.On("ListRulesByLocation", ctx, suite.locationID, true).Return(rules, nil).Once()

	listed, err := suite.service.ListRules(ctx, suite.locationID, true)

	suite.Require().NoError(err)
	suite.Equal(rules, listed)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

// --- Run Test Suite ---

func TestTipOutService(t *testing.T) {
	suite.Run(t, new(TipOutServiceTestSuite))
}
