package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transactx/internal/models"
	"transactx/internal/utils"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	m.data[key] = raw
	return true, err
}

func (m *memoryStore) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	m.data[key] = raw
	return err
}

func (m *memoryStore) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func send(t *testing.T, app *fiber.App, method, path string, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthMiddleware("secret", nil)
	app := fiber.New()
	app.Get("/me", auth.Handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	})
	app.Get("/admin", auth.Handler, AdminAuthMiddleware, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	userToken, err := utils.GenerateToken("secret", time.Minute, &models.UserClaims{UserID: 4, Role: models.RoleUser})
	require.NoError(t, err)
	adminToken, err := utils.GenerateToken("secret", time.Minute, &models.UserClaims{Role: models.RoleAdmin})
	require.NoError(t, err)
	otherSecret, err := utils.GenerateToken("other", time.Minute, &models.UserClaims{UserID: 4})
	require.NoError(t, err)
	expired, err := utils.GenerateToken("secret", -time.Minute, &models.UserClaims{UserID: 4})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"not bearer", "/me", "Token " + userToken, fiber.StatusUnauthorized},
		{"wrong secret", "/me", "Bearer " + otherSecret, fiber.StatusUnauthorized},
		{"expired", "/me", "Bearer " + expired, fiber.StatusUnauthorized},
		{"valid", "/me", "Bearer " + userToken, fiber.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken, fiber.StatusForbidden},
		{"admin", "/admin", "Bearer " + adminToken, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp, _ := send(t, app, http.MethodGet, tt.path, headers)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	app := fiber.New()
	app.Post("/transfers", Idempotency(store, time.Hour, nil), func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})

	headers := map[string]string{HeaderIdempotencyKey: "abc"}
	first, firstBody := send(t, app, http.MethodPost, "/transfers", headers)
	second, secondBody := send(t, app, http.MethodPost, "/transfers", headers)

	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, firstBody, secondBody)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, 1, calls)

	// A new key or no key runs the handler again.
	send(t, app, http.MethodPost, "/transfers", map[string]string{HeaderIdempotencyKey: "def"})
	send(t, app, http.MethodPost, "/transfers", nil)
	assert.Equal(t, 3, calls)
}

func TestIdempotency_ServerErrorsAreRetryable(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	app := fiber.New()
	app.Post("/transfers", Idempotency(store, time.Hour, nil), func(c *fiber.Ctx) error {
		calls++
		if calls == 1 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "boom"})
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	headers := map[string]string{HeaderIdempotencyKey: "abc"}
	first, _ := send(t, app, http.MethodPost, "/transfers", headers)
	second, _ := send(t, app, http.MethodPost, "/transfers", headers)

	assert.Equal(t, fiber.StatusInternalServerError, first.StatusCode)
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	store := newMemoryStore()
	_, err := store.SetNX(context.Background(), "idem:<nil>:/transfers:abc", storedResponse{Pending: true}, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/transfers", Idempotency(store, time.Hour, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, _ := send(t, app, http.MethodPost, "/transfers", map[string]string{HeaderIdempotencyKey: "abc"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
