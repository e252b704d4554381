package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"africoin/internal/auth"
	"africoin/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) CreateAccount(ctx context.Context, phone, displayName, pin string) (*OnboardResult, error) {
	args := m.Called(ctx, phone, displayName, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OnboardResult), args.Error(1)
}

func (m *MockService) Mint(ctx context.Context, idHash, amount, reason string) (string, error) {
	args := m.Called(ctx, idHash, amount, reason)
	return args.String(0), args.Error(1)
}

func (m *MockService) TopUp(ctx context.Context, idHash, amount string) (string, error) {
	args := m.Called(ctx, idHash, amount)
	return args.String(0), args.Error(1)
}

func (m *MockService) Transfer(ctx context.Context, senderIDHash, recipientIDHash, amount, txHash string) (*TransferResult, error) {
	args := m.Called(ctx, senderIDHash, recipientIDHash, amount, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransferResult), args.Error(1)
}

func (m *MockService) GetBalance(ctx context.Context, idHash string) (*BalanceResult, error) {
	args := m.Called(ctx, idHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BalanceResult), args.Error(1)
}

func (m *MockService) VerifyPin(ctx context.Context, idHash, pin string) error {
	return m.Called(ctx, idHash, pin).Error(0)
}

func (m *MockService) History(ctx context.Context, idHash string, limit, offset int) ([]ledger.Transaction, error) {
	args := m.Called(ctx, idHash, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockService) ResolveIDHash(phoneOrIDHash string) (string, error) {
	args := m.Called(phoneOrIDHash)
	return args.String(0), args.Error(1)
}

const testJWTSecret = "test-secret"

func setupHandlerTest(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, testJWTSecret)
	r := gin.New()
	r.POST("/onboard", h.Onboard)
	r.GET("/balance/:idHash", h.GetBalance)
	r.POST("/transfer", h.Transfer)
	r.POST("/topup", h.TopUp)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	r.GET("/transactions", auth.AuthMiddleware(testJWTSecret), h.History)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, w)
	errObj, ok := env["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

func TestOnboardHandler_Success(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateAccount", mock.Anything, "+254712345678", "Amina", "1234").
		Return(&OnboardResult{IDHash: strings.Repeat("ab", 32), WalletAddress: "0x" + strings.Repeat("cd", 20)}, nil)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/onboard", OnboardRequest{
		Phone: "+254712345678", Name: "Amina", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env["success"])
	data := env["data"].(map[string]any)
	assert.Len(t, data["id_hash"], 64)
	svc.AssertExpectations(t)
}

func TestOnboardHandler_ValidationRejected(t *testing.T) {
	svc := new(MockService)
	r := setupHandlerTest(svc)

	cases := []OnboardRequest{
		{Phone: "", Name: "Amina", Pin: "1234"},
		{Phone: "+254712345678", Name: "A", Pin: "1234"},
		{Phone: "+254712345678", Name: "Amina", Pin: "12"},
		{Phone: "+254712345678", Name: "Amina", Pin: "abcd"},
	}
	for _, req := range cases {
		w := doJSON(t, r, http.MethodPost, "/onboard", req, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	svc.AssertNotCalled(t, "CreateAccount")
}

func TestOnboardHandler_Duplicate(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, ErrAccountExists)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/onboard", OnboardRequest{
		Phone: "+254712345678", Name: "Amina", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACCOUNT_EXISTS", errorCode(t, w))
}

func TestGetBalanceHandler(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)
	svc.On("GetBalance", mock.Anything, hash).
		Return(&BalanceResult{Balance: "5000", Decimals: 18, Symbol: "AFRI"}, nil)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodGet, "/balance/"+hash, nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "5000", data["balance"])
	assert.Equal(t, float64(18), data["decimals"])
	assert.Equal(t, "AFRI", data["symbol"])
}

func TestGetBalanceHandler_NotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("GetBalance", mock.Anything, "missing").Return(nil, ErrAccountNotFound)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodGet, "/balance/missing", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", errorCode(t, w))
}

func TestTransferHandler_Success(t *testing.T) {
	svc := new(MockService)
	svc.On("ResolveIDHash", "+254700000001").Return("sender-hash", nil)
	svc.On("ResolveIDHash", "+254700000002").Return("recipient-hash", nil)
	svc.On("VerifyPin", mock.Anything, "sender-hash", "1234").Return(nil)
	svc.On("Transfer", mock.Anything, "sender-hash", "recipient-hash", "30", "").
		Return(&TransferResult{NewBalance: "20", TransactionHash: "0xabc"}, nil)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/transfer", TransferRequest{
		Sender: "+254700000001", Recipient: "+254700000002", Amount: "30", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "20", data["new_balance"])
	assert.Equal(t, "0xabc", data["transaction_hash"])
	svc.AssertExpectations(t)
}

func TestTransferHandler_WrongPin(t *testing.T) {
	svc := new(MockService)
	svc.On("ResolveIDHash", mock.Anything).Return("some-hash", nil)
	svc.On("VerifyPin", mock.Anything, "some-hash", "9999").Return(ErrInvalidCredentials)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/transfer", TransferRequest{
		Sender: "+254700000001", Recipient: "+254700000002", Amount: "30", Pin: "9999",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
	svc.AssertNotCalled(t, "Transfer")
}

func TestTransferHandler_InsufficientBalance(t *testing.T) {
	svc := new(MockService)
	svc.On("ResolveIDHash", mock.Anything).Return("some-hash", nil)
	svc.On("VerifyPin", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, ErrInsufficientBalance)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/transfer", TransferRequest{
		Sender: "+254700000001", Recipient: "+254700000002", Amount: "3000", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", errorCode(t, w))
}

func TestTransferHandler_InvalidPhone(t *testing.T) {
	svc := new(MockService)
	svc.On("ResolveIDHash", "0712345678").Return("", ErrInvalidPhone)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/transfer", TransferRequest{
		Sender: "0712345678", Recipient: "+254700000002", Amount: "30", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PHONE", errorCode(t, w))
}

func TestTopUpHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("ResolveIDHash", "+254700000001").Return("some-hash", nil)
	svc.On("TopUp", mock.Anything, "some-hash", "500").Return("1500", nil)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/topup", TopUpRequest{
		Account: "+254700000001", Amount: "500",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "1500", data["new_balance"])
}

func TestLoginHandler_IssuesTokens(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)
	svc.On("ResolveIDHash", "+254700000001").Return(hash, nil)
	svc.On("VerifyPin", mock.Anything, hash, "1234").Return(nil)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/login", LoginRequest{
		Phone: "+254700000001", Pin: "1234",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	accessToken, _ := data["access_token"].(string)
	require.NotEmpty(t, accessToken)

	claims, err := auth.ValidateToken(accessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, hash, claims.IDHash)
}

func TestRefreshHandler_IssuesNewAccessToken(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)
	svc.On("GetBalance", mock.Anything, hash).
		Return(&BalanceResult{Balance: "0", Decimals: 18, Symbol: "AFRI"}, nil)

	_, refreshToken, err := auth.GenerateTokens(hash, testJWTSecret)
	require.NoError(t, err)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: refreshToken}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, hash, data["id_hash"])

	accessToken, _ := data["access_token"].(string)
	require.NotEmpty(t, accessToken)
	claims, err := auth.ValidateToken(accessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, hash, claims.IDHash)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshHandler_RejectsAccessToken(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)

	// An access token is not redeemable for another access token.
	accessToken, _, err := auth.GenerateTokens(hash, testJWTSecret)
	require.NoError(t, err)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: accessToken}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
	svc.AssertNotCalled(t, "GetBalance")
}

func TestRefreshHandler_GarbageToken(t *testing.T) {
	svc := new(MockService)
	r := setupHandlerTest(svc)

	w := doJSON(t, r, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: "not-a-token"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/refresh", RefreshRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshHandler_AccountGone(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)
	svc.On("GetBalance", mock.Anything, hash).Return(nil, ErrAccountNotFound)

	_, refreshToken, err := auth.GenerateTokens(hash, testJWTSecret)
	require.NoError(t, err)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodPost, "/refresh", RefreshRequest{RefreshToken: refreshToken}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", errorCode(t, w))
}

func TestHistoryHandler_RequiresAuth(t *testing.T) {
	svc := new(MockService)
	r := setupHandlerTest(svc)

	w := doJSON(t, r, http.MethodGet, "/transactions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "History")
}

func TestHistoryHandler_ReturnsTransactions(t *testing.T) {
	svc := new(MockService)
	hash := strings.Repeat("ab", 32)
	svc.On("History", mock.Anything, hash, 50, 0).
		Return([]ledger.Transaction{{Hash: "0x1", Amount: "30"}}, nil)

	accessToken, _, err := auth.GenerateTokens(hash, testJWTSecret)
	require.NoError(t, err)

	r := setupHandlerTest(svc)
	w := doJSON(t, r, http.MethodGet, "/transactions", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	txs := env["data"].([]any)
	require.Len(t, txs, 1)
	svc.AssertExpectations(t)
}
