package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/core/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock TerminalTokenRepository ---
type MockTerminalTokenRepository struct {
	mock.Mock
}

func (m *MockTerminalTokenRepository) FindTokenByID(ctx context.Context, tokenID string) (*domain.TerminalToken, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TerminalToken), args.Error(1)
}
func (m *MockTerminalTokenRepository) FindTokenByHash(ctx context.Context, tokenHash string) (*domain.TerminalToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TerminalToken), args.Error(1)
}
func (m *MockTerminalTokenRepository) ListTokensByLocation(ctx context.Context, locationID string) ([]domain.TerminalToken, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TerminalToken), args.Error(1)
}
func (m *MockTerminalTokenRepository) SaveToken(ctx context.Context, token domain.TerminalToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
func (m *MockTerminalTokenRepository) TouchToken(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}
func (m *MockTerminalTokenRepository) RevokeToken(ctx context.Context, tokenID string, revokedAt time.Time, userID string) error {
	args := m.Called(ctx, tokenID, revokedAt, userID)
	return args.Error(0)
}

// --- Test Suite Setup ---
type TokenServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	mockTokenRepo *MockTerminalTokenRepository
	service       portssvc.TerminalTokenSvcFacade

	locationID string
	managerID  string
}

func (suite *TokenServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockTokenRepo = new(MockTerminalTokenRepository)
	suite.service = services.NewTerminalTokenService(suite.mockTokenRepo)

	suite.locationID = uuid.NewString()
	suite.managerID = uuid.NewString()
}

// liveToken returns a stored token fixture alongside its plaintext secret.
func (suite *TokenServiceTestSuite) liveToken() (string, *domain.TerminalToken) {
	secret := "pos_0123456789abcdef0123456789abcdef0123456789abcdef"
	token := &domain.TerminalToken{
		TokenID:    uuid.NewString(),
		LocationID: suite.locationID,
		Name:       "bar register 2",
		TokenHash:  utils.HashTerminalSecret(secret),
	}
	return secret, token
}

// --- Test Cases ---

func (suite *TokenServiceTestSuite) TestCreateToken_Success() {
	suite.mockTokenRepo.On("SaveToken", suite.ctx, mock.AnythingOfType("domain.TerminalToken")).Return(nil).Once()

	secret, token, err := suite.service.CreateToken(suite.ctx, suite.locationID, dto.CreateTerminalTokenRequest{
		Name: "bar register 2",
	}, suite.managerID)

	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(secret, "pos_"))
	suite.Equal(suite.locationID, token.LocationID)
	suite.Equal("bar register 2", token.Name)
	suite.Equal(suite.managerID, token.CreatedBy)
	// The stored digest must match the secret handed out; the secret itself
	// is never persisted.
	suite.Equal(utils.HashTerminalSecret(secret), token.TokenHash)
	suite.Nil(token.ExpiresAt)

	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *TokenServiceTestSuite) TestCreateToken_WithExpiry() {
	suite.mockTokenRepo.On("SaveToken", suite.ctx, mock.AnythingOfType("domain.TerminalToken")).Return(nil).Once()

	days := 30
	_, token, err := suite.service.CreateToken(suite.ctx, suite.locationID, dto.CreateTerminalTokenRequest{
		Name:          "patio handheld",
		ExpiresInDays: &days,
	}, suite.managerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(token.ExpiresAt)
	suite.WithinDuration(time.Now().UTC().AddDate(0, 0, 30), *token.ExpiresAt, time.Minute)
}

func (suite *TokenServiceTestSuite) TestValidateToken_Success() {
	secret, token := suite.liveToken()
	suite.mockTokenRepo.On("FindTokenByHash", suite.ctx, token.TokenHash).Return(token, nil).Once()
	suite.mockTokenRepo.On("TouchToken", suite.ctx, token.TokenID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	got, err := suite.service.ValidateToken(suite.ctx, secret)

	suite.Require().NoError(err)
	suite.Equal(token.TokenID, got.TokenID)
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *TokenServiceTestSuite) TestValidateToken_Unknown() {
	secret, _ := suite.liveToken()
	suite.mockTokenRepo.On("FindTokenByHash", suite.ctx, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ValidateToken(suite.ctx, secret)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "TouchToken", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TokenServiceTestSuite) TestValidateToken_Empty() {
	_, err := suite.service.ValidateToken(suite.ctx, "")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "FindTokenByHash", mock.Anything, mock.Anything)
}

func (suite *TokenServiceTestSuite) TestValidateToken_Revoked() {
	secret, token := suite.liveToken()
	revokedAt := time.Now().UTC().Add(-time.Hour)
	token.RevokedAt = &revokedAt
	suite.mockTokenRepo.On("FindTokenByHash", suite.ctx, token.TokenHash).Return(token, nil).Once()

	_, err := suite.service.ValidateToken(suite.ctx, secret)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "TouchToken", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TokenServiceTestSuite) TestValidateToken_Expired() {
	secret, token := suite.liveToken()
	expiresAt := time.Now().UTC().Add(-time.Minute)
	token.ExpiresAt = &expiresAt
	suite.mockTokenRepo.On("FindTokenByHash", suite.ctx, token.TokenHash).Return(token, nil).Once()

	_, err := suite.service.ValidateToken(suite.ctx, secret)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *TokenServiceTestSuite) TestValidateToken_TouchFailureIgnored() {
	secret, token := suite.liveToken()
	suite.mockTokenRepo.On("FindTokenByHash", suite.ctx, token.TokenHash).Return(token, nil).Once()
	suite.mockTokenRepo.On("TouchToken", suite.ctx, token.TokenID, mock.AnythingOfType("time.Time")).
		Return(apperrors.ErrInternal).Once()

	// Recording last use is best effort and must not fail the request.
	got, err := suite.service.ValidateToken(suite.ctx, secret)

	suite.Require().NoError(err)
	suite.Equal(token.TokenID, got.TokenID)
}

func (suite *TokenServiceTestSuite) TestRevokeToken_Success() {
	_, token := suite.liveToken()
	suite.mockTokenRepo.On("FindTokenByID", suite.ctx, token.TokenID).Return(token, nil).Once()
	suite.mockTokenRepo.On("RevokeToken", suite.ctx, token.TokenID, mock.AnythingOfType("time.Time"), suite.managerID).
		Return(nil).Once()

	err := suite.service.RevokeToken(suite.ctx, suite.locationID, token.TokenID, suite.managerID)

	suite.Require().NoError(err)
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *TokenServiceTestSuite) TestRevokeToken_AlreadyRevoked() {
	_, token := suite.liveToken()
	revokedAt := time.Now().UTC().Add(-time.Hour)
	token.RevokedAt = &revokedAt
	suite.mockTokenRepo.On("FindTokenByID", suite.ctx, token.TokenID).Return(token, nil).Once()

	// Revoking twice is a no-op, not an error.
	err := suite.service.RevokeToken(suite.ctx, suite.locationID, token.TokenID, suite.managerID)

	suite.Require().NoError(err)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "RevokeToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TokenServiceTestSuite) TestRevokeToken_WrongLocation() {
	_, token := suite.liveToken()
	suite.mockTokenRepo.On("FindTokenByID", suite.ctx, token.TokenID).Return(token, nil).Once()

	err := suite.service.RevokeToken(suite.ctx, uuid.NewString(), token.TokenID, suite.managerID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTokenRepo.AssertNotCalled(suite.T(), "RevokeToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Run Test Suite ---
func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}
