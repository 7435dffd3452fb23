package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
	"golang.org/x/crypto/bcrypt"

	"transactx/internal/config"
	"transactx/internal/handlers"
	"transactx/internal/middleware"
	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/repositories/memstore"
	"transactx/internal/scheduler"
	"transactx/internal/services/fee"
	"transactx/internal/services/sweeper"
	"transactx/internal/services/transaction"
	"transactx/internal/services/transfer"
	"transactx/internal/services/wallet"
	"transactx/internal/utils"
)

const testSecret = "test-secret"

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Payout(ctx context.Context, tx *models.Transaction) (string, error) {
	args := m.Called(ctx, tx.Reference)
	return args.String(0), args.Error(1)
}

type testApp struct {
	app      *fiber.App
	store    *memstore.Store
	provider *MockProvider
	auth     config.AuthConfig
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	provider := new(MockProvider)
	a := newTestAppWith(t, provider)
	a.provider = provider
	return a
}

func newTestAppWith(t *testing.T, provider transfer.PayoutProvider, opts ...transaction.Option) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := config.AuthConfig{
		JWTSecret:         testSecret,
		TokenTTL:          time.Minute,
		AdminEmail:        "admin@transactx.local",
		AdminPasswordHash: string(hash),
	}

	store := memstore.New()
	require.NoError(t, store.Wallets().Create(ctx, &models.Wallet{UserID: 7, Balance: money.New(5000000, money.NGN)}))

	transactions := transaction.NewService(store, fee.NewCalculator(fee.DefaultSchedule()), money.NGN, logger, opts...)
	transfers := transfer.NewService(store, provider, logger)
	sweep := sweeper.New(store.Transactions(), transfers, sweeper.PolicyAbort, logger)

	jobs := scheduler.New(scheduler.NewLocalLocker(), logger)
	require.NoError(t, jobs.Every(sweeper.JobName, time.Hour, time.Minute, sweep.Sweep))

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return nil },
		}),
		Admin:       handlers.NewAdminHandler(auth, jobs, logger),
		Transaction: handlers.NewTransactionHandler(transactions, logger),
		Wallet:      handlers.NewWalletHandler(wallet.NewService(store, money.NGN, logger), logger),
		Auth:        middleware.NewAuthMiddleware(testSecret, logger),
	})

	return &testApp{app: app, store: store, auth: auth}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func userToken(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, time.Minute, &models.UserClaims{UserID: userID, Role: models.RoleUser})
	require.NoError(t, err)
	return token
}

func transferBody(amount string) fiber.Map {
	return fiber.Map{
		"amount":                     amount,
		"beneficiary_account_number": "0123456789",
		"beneficiary_bank_code":      "058",
		"beneficiary_name":           "Ada Obi",
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	status, body := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestTransfers_RequireAuth(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.do(t, http.MethodPost, "/api/transfers", "", transferBody("100"))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/transfers", "not-a-jwt", transferBody("100"))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTransfers_CreateAndList(t *testing.T) {
	a := newTestApp(t)
	token := userToken(t, 7)

	status, body := a.do(t, http.MethodPost, "/api/transfers", token, transferBody("1500.25"))
	require.Equal(t, http.StatusCreated, status, body)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 1500.25, data["amount"])
	assert.Equal(t, "PENDING", data["status"])
	reference := data["reference"].(string)

	status, body = a.do(t, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total"])

	status, body = a.do(t, http.MethodGet, "/api/transactions/"+reference, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, reference, body["data"].(map[string]interface{})["reference"])

	// Other users cannot see it.
	status, _ = a.do(t, http.MethodGet, "/api/transactions/"+reference, userToken(t, 8), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTransfers_ErrorMapping(t *testing.T) {
	a := newTestApp(t)
	token := userToken(t, 7)

	tests := []struct {
		name   string
		token  string
		body   fiber.Map
		status int
	}{
		{"non-numeric amount", token, transferBody("abc"), http.StatusBadRequest},
		{"excess precision", token, transferBody("1.001"), http.StatusBadRequest},
		{"missing beneficiary", token, fiber.Map{"amount": "10"}, http.StatusBadRequest},
		{"insufficient balance", token, transferBody("60000"), http.StatusUnprocessableEntity},
		{"no wallet", userToken(t, 99), transferBody("10"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.do(t, http.MethodPost, "/api/transfers", tt.token, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAdminLogin(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.do(t, http.MethodPost, "/api/admin/login", "", fiber.Map{"email": a.auth.AdminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := a.do(t, http.MethodPost, "/api/admin/login", "", fiber.Map{"email": a.auth.AdminEmail, "password": "s3cret"})
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]interface{})["access_token"].(string)

	claims, err := utils.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestAdminSweep(t *testing.T) {
	a := newTestApp(t)
	user := userToken(t, 7)

	status, body := a.do(t, http.MethodPost, "/api/transfers", user, transferBody("100"))
	require.Equal(t, http.StatusCreated, status)
	reference := body["data"].(map[string]interface{})["reference"].(string)

	status, _ = a.do(t, http.MethodPost, "/api/admin/sweep", user, nil)
	assert.Equal(t, http.StatusForbidden, status, "users cannot trigger sweeps")

	admin, err := utils.GenerateToken(testSecret, time.Minute, &models.UserClaims{Role: models.RoleAdmin})
	require.NoError(t, err)

	a.provider.On("Payout", mock.Anything, reference).Return("", errors.New("timeout")).Once()
	status, _ = a.do(t, http.MethodPost, "/api/admin/sweep", admin, nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	a.provider.On("Payout", mock.Anything, reference).Return("tr_123", nil).Once()
	status, _ = a.do(t, http.MethodPost, "/api/admin/sweep", admin, nil)
	require.Equal(t, http.StatusOK, status)

	stored, err := a.store.Transactions().FindByReference(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccessful, stored.Status)
	assert.Equal(t, "tr_123", stored.ProviderReference)
	a.provider.AssertExpectations(t)
}

type stripeTransferClient struct {
	params []*stripe.TransferParams
}

func (c *stripeTransferClient) New(params *stripe.TransferParams) (*stripe.Transfer, error) {
	c.params = append(c.params, params)
	return &stripe.Transfer{ID: "tr_stripe_1"}, nil
}

func TestTransfers_StripePayoutEndToEnd(t *testing.T) {
	client := &stripeTransferClient{}
	a := newTestAppWith(t, transfer.NewStripePayoutProviderWithClient(client), transaction.WithStripeAccountRequired())
	user := userToken(t, 7)

	status, body := a.do(t, http.MethodPost, "/api/transfers", user, transferBody("100"))
	assert.Equal(t, http.StatusBadRequest, status, "stripe payouts need a connected account")
	assert.NotEmpty(t, body["error"])

	bad := transferBody("100")
	bad["beneficiary_stripe_account"] = "0123456789"
	status, _ = a.do(t, http.MethodPost, "/api/transfers", user, bad)
	assert.Equal(t, http.StatusBadRequest, status)

	req := transferBody("100")
	req["beneficiary_stripe_account"] = "acct_1Nv0FGQ9RKHgCVdK"
	status, body = a.do(t, http.MethodPost, "/api/transfers", user, req)
	require.Equal(t, http.StatusCreated, status, body)
	reference := body["data"].(map[string]interface{})["reference"].(string)

	admin, err := utils.GenerateToken(testSecret, time.Minute, &models.UserClaims{Role: models.RoleAdmin})
	require.NoError(t, err)
	status, _ = a.do(t, http.MethodPost, "/api/admin/sweep", admin, nil)
	require.Equal(t, http.StatusOK, status)

	stored, err := a.store.Transactions().FindByReference(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccessful, stored.Status)
	assert.Equal(t, "tr_stripe_1", stored.ProviderReference)

	require.Len(t, client.params, 1)
	assert.Equal(t, "acct_1Nv0FGQ9RKHgCVdK", *client.params[0].Destination)
	assert.Equal(t, int64(10000), *client.params[0].Amount)
	assert.Equal(t, reference, *client.params[0].IdempotencyKey)
}

func TestWallet_OpenAndCredit(t *testing.T) {
	a := newTestApp(t)
	user := userToken(t, 21)

	status, _ := a.do(t, http.MethodGet, "/api/wallet", user, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/api/wallet", user, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = a.do(t, http.MethodPost, "/api/wallet", user, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodPost, "/api/admin/wallets/21/credit", user, fiber.Map{"amount": "50"})
	assert.Equal(t, http.StatusForbidden, status)

	admin, err := utils.GenerateToken(testSecret, time.Minute, &models.UserClaims{Role: models.RoleAdmin})
	require.NoError(t, err)
	status, body := a.do(t, http.MethodPost, "/api/admin/wallets/21/credit", admin, fiber.Map{"amount": "50.75"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "DEPOSIT", body["data"].(map[string]interface{})["type"])

	status, body = a.do(t, http.MethodGet, "/api/wallet", user, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 50.75, body["data"].(map[string]interface{})["balance"])
}
