package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/handlers"
	"github.com/stackpos/tipengine/internal/platform/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetEmployeeBalance(ctx context.Context, locationID string, employeeID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, locationID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}
func (m *MockLedgerService) GetHouseBalance(ctx context.Context, locationID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}
func (m *MockLedgerService) ListEntries(ctx context.Context, locationID string, employeeID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, locationID, employeeID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockLedgerService) RecomputeBalance(ctx context.Context, locationID string, accountID string) (int64, int64, error) {
	args := m.Called(ctx, locationID, accountID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
func (m *MockLedgerService) EnsureEmployeeAccount(ctx context.Context, locationID string, employeeID string, creatorUserID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, locationID, employeeID, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}
func (m *MockLedgerService) EnsureHouseAccount(ctx context.Context, locationID string, creatorUserID string) (*domain.LedgerAccount, error) {
	args := m.Called(ctx, locationID, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAccount), args.Error(1)
}
func (m *MockLedgerService) PostAdjustment(ctx context.Context, locationID string, req dto.CreateAdjustmentRequest, creatorUserID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, locationID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) ReverseEntry(ctx context.Context, locationID string, entryID string, reason string, requestingUserID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, locationID, entryID, reason, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LoginResponse), args.Error(1)
}
func (m *MockAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthService) CreateUser(ctx context.Context, locationID string, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	args := m.Called(ctx, locationID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.AuthSvcFacade = (*MockAuthService)(nil)

// --- Test Suite ---
type LedgerHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockLedgerService *MockLedgerService
	mockAuthService   *MockAuthService
	jwtSecret         string

	locationID string
	managerID  string
	staffID    string
	employeeID string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *LedgerHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "tipengine-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

// expectUser wires the per-request user load the location access middleware
// performs for JWT callers.
func (suite *LedgerHandlerTestSuite) expectUser(user *domain.User) {
	suite.mockAuthService.On("GetUserByID", mock.Anything, user.UserID).Return(user, nil).Once()
}

func (suite *LedgerHandlerTestSuite) managerUser() *domain.User {
	return &domain.User{
		UserID:     suite.managerID,
		LocationID: suite.locationID,
		Username:   "manager",
		Role:       domain.UserRoleManager,
	}
}

func (suite *LedgerHandlerTestSuite) staffUser(employeeID string) *domain.User {
	return &domain.User{
		UserID:     suite.staffID,
		LocationID: suite.locationID,
		EmployeeID: employeeID,
		Username:   "staff",
		Role:       domain.UserRoleStaff,
	}
}

// serve runs one request through the full middleware chain. An empty token
// leaves the Authorization header off entirely.
func (suite *LedgerHandlerTestSuite) serve(method, url, token string, body []byte) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	suite.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockLedgerService = new(MockLedgerService)
	suite.mockAuthService = new(MockAuthService)

	suite.locationID = uuid.NewString()
	suite.managerID = uuid.NewString()
	suite.staffID = uuid.NewString()
	suite.employeeID = uuid.NewString()

	// Routes for the nil services are registered but never hit here.
	handlers.RegisterRoutes(suite.router, &config.Config{JWTSecret: suite.jwtSecret}, &portssvc.ServiceContainer{
		Ledger: suite.mockLedgerService,
		Auth:   suite.mockAuthService,
	})
}

// --- Test Cases ---

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_Manager() {
	suite.expectUser(suite.managerUser())
	account := &domain.LedgerAccount{
		AccountID:    uuid.NewString(),
		LocationID:   suite.locationID,
		EmployeeID:   suite.employeeID,
		Kind:         domain.AccountEmployee,
		BalanceCents: 12345,
	}
	suite.mockLedgerService.On("GetEmployeeBalance", mock.Anything, suite.locationID, suite.employeeID).
		Return(account, nil).Once()

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(account.AccountID, resp.AccountID)
	suite.Equal(suite.employeeID, resp.EmployeeID)
	suite.Equal(domain.AccountEmployee, resp.Kind)
	suite.Equal(int64(12345), resp.BalanceCents)

	suite.mockAuthService.AssertExpectations(suite.T())
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_StaffReadsOwn() {
	suite.expectUser(suite.staffUser(suite.employeeID))
	account := &domain.LedgerAccount{
		AccountID:    uuid.NewString(),
		LocationID:   suite.locationID,
		EmployeeID:   suite.employeeID,
		Kind:         domain.AccountEmployee,
		BalanceCents: 900,
	}
	suite.mockLedgerService.On("GetEmployeeBalance", mock.Anything, suite.locationID, suite.employeeID).
		Return(account, nil).Once()

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.staffID), nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_StaffReadsOtherEmployee() {
	// The staff login is bound to a different employee than the one in the path.
	suite.expectUser(suite.staffUser(uuid.NewString()))

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.staffID), nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "GetEmployeeBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_AccountNotFound() {
	suite.expectUser(suite.managerUser())
	suite.mockLedgerService.On("GetEmployeeBalance", mock.Anything, suite.locationID, suite.employeeID).
		Return(nil, apperrors.ErrNotFound).Once()

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_MissingToken() {
	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, "", nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAuthService.AssertNotCalled(suite.T(), "GetUserByID", mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestGetEmployeeBalance_WrongLocation() {
	suite.expectUser(suite.managerUser())

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/balance", uuid.NewString(), suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "GetEmployeeBalance", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestListEntries_ForwardsPagination() {
	suite.expectUser(suite.managerUser())

	nextToken := "b3BhcXVl"
	expected := &dto.ListEntriesResponse{
		Entries: []dto.EntryResponse{
			{
				EntryID:     uuid.NewString(),
				AccountID:   uuid.NewString(),
				AmountCents: 1500,
				Source:      domain.SourceTipTransaction,
				CreatedAt:   time.Now(),
			},
			{
				EntryID:     uuid.NewString(),
				AccountID:   uuid.NewString(),
				AmountCents: -300,
				Source:      domain.SourceTipOut,
				CreatedAt:   time.Now().Add(-time.Hour),
			},
		},
		NextToken: &nextToken,
	}
	suite.mockLedgerService.On("ListEntries",
		mock.Anything,
		suite.locationID,
		suite.employeeID,
		mock.MatchedBy(func(p dto.ListEntriesParams) bool {
			return p.Limit == 2
		}),
	).Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/locations/%s/employees/%s/ledger?limit=2", suite.locationID, suite.employeeID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 2)
	suite.Equal(expected.Entries[0].EntryID, resp.Entries[0].EntryID)
	suite.Equal(expected.Entries[1].EntryID, resp.Entries[1].EntryID)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(nextToken, *resp.NextToken)

	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestRecomputeBalance_ReportsDrift() {
	suite.expectUser(suite.managerUser())
	accountID := uuid.NewString()
	suite.mockLedgerService.On("RecomputeBalance", mock.Anything, suite.locationID, accountID).
		Return(int64(8200), int64(7900), nil).Once()

	url := fmt.Sprintf("/api/v1/locations/%s/accounts/%s/recompute", suite.locationID, accountID)
	w := suite.serve(http.MethodGet, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp handlers.BalanceAuditResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(accountID, resp.AccountID)
	suite.Equal(int64(8200), resp.DerivedCents)
	suite.Equal(int64(7900), resp.CachedCents)
	suite.False(resp.InSync)

	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestCreateAdjustment_Manager() {
	suite.expectUser(suite.managerUser())

	req := dto.CreateAdjustmentRequest{
		EmployeeID:     suite.employeeID,
		AmountCents:    -500,
		Reason:         "till shortage 2025-03-07",
		IdempotencyKey: uuid.NewString(),
	}
	entry := &domain.LedgerEntry{
		EntryID:        uuid.NewString(),
		AccountID:      uuid.NewString(),
		AmountCents:    req.AmountCents,
		Source:         domain.SourceAdjustment,
		IdempotencyKey: req.IdempotencyKey,
		Memo:           req.Reason,
		CreatedAt:      time.Now(),
		CreatedBy:      suite.managerID,
	}
	// The creator must be the user from the token, not anything in the body.
	suite.mockLedgerService.On("PostAdjustment", mock.Anything, suite.locationID, req, suite.managerID).
		Return(entry, nil).Once()

	body, err := json.Marshal(req)
	suite.Require().NoError(err)
	url := fmt.Sprintf("/api/v1/locations/%s/adjustments", suite.locationID)
	w := suite.serve(http.MethodPost, url, suite.generateTestToken(suite.managerID), body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(entry.EntryID, resp.EntryID)
	suite.Equal(int64(-500), resp.AmountCents)
	suite.Equal(domain.SourceAdjustment, resp.Source)

	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestCreateAdjustment_StaffForbidden() {
	suite.expectUser(suite.staffUser(suite.employeeID))

	req := dto.CreateAdjustmentRequest{
		EmployeeID:     suite.employeeID,
		AmountCents:    500,
		Reason:         "self serve raise",
		IdempotencyKey: uuid.NewString(),
	}
	body, err := json.Marshal(req)
	suite.Require().NoError(err)
	url := fmt.Sprintf("/api/v1/locations/%s/adjustments", suite.locationID)
	w := suite.serve(http.MethodPost, url, suite.generateTestToken(suite.staffID), body)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "PostAdjustment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestReverseEntry_AlreadyReversed() {
	suite.expectUser(suite.managerUser())
	entryID := uuid.NewString()
	suite.mockLedgerService.On("ReverseEntry", mock.Anything, suite.locationID, entryID, "", suite.managerID).
		Return(nil, fmt.Errorf("entry already reversed: %w", apperrors.ErrConflict)).Once()

	// No body: the reversal reason is optional.
	url := fmt.Sprintf("/api/v1/locations/%s/entries/%s/reverse", suite.locationID, entryID)
	w := suite.serve(http.MethodPost, url, suite.generateTestToken(suite.managerID), nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
