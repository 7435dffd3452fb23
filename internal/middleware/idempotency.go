package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// ResponseStore persists replayable responses. cache.CacheService satisfies
// it.
type ResponseStore interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type storedResponse struct {
	Pending bool   `json:"pending"`
	Status  int    `json:"status,omitempty"`
	Body    []byte `json:"body,omitempty"`
}

// Idempotency replays the first response for a repeated Idempotency-Key from
// the same user. Requests without the header pass through. Server errors are
// not stored so the client can retry them.
func Idempotency(store ResponseStore, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		idemKey := c.Get(HeaderIdempotencyKey)
		if idemKey == "" {
			return c.Next()
		}
		if len(idemKey) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "idempotency key too long"})
		}

		ctx := c.UserContext()
		key := fmt.Sprintf("idem:%v:%s:%s", c.Locals("userID"), c.Path(), idemKey)

		reserved, err := store.SetNX(ctx, key, storedResponse{Pending: true}, ttl)
		if err != nil {
			logger.Error("idempotency store unavailable", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}
		if !reserved {
			var prev storedResponse
			found, err := store.Get(ctx, key, &prev)
			if err != nil {
				logger.Error("idempotency store unavailable", "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
			}
			if !found || prev.Pending {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A request with this idempotency key is in progress"})
			}
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(prev.Status).Send(prev.Body)
		}

		if err := c.Next(); err != nil {
			_ = store.Delete(ctx, key)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Delete(ctx, key); err != nil {
				logger.Warn("failed to clear idempotency key", "key", key, "error", err)
			}
			return nil
		}

		resp := storedResponse{Status: status, Body: append([]byte(nil), c.Response().Body()...)}
		if err := store.SetWithTTL(ctx, key, resp, ttl); err != nil {
			logger.Warn("failed to store idempotent response", "key", key, "error", err)
		}
		return nil
	}
}
