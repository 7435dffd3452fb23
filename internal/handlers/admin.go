package handlers

import (
	"context"
	"log/slog"
	"strings"

	"transactx/internal/config"
	"transactx/internal/models"
	"transactx/internal/services/sweeper"
	"transactx/internal/utils"
	"transactx/internal/utils/response"
	"transactx/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// adminUserID is the subject of admin tokens. The admin account lives in
// configuration, not in the users table.
const adminUserID = 0

// JobRunner runs a scheduled job immediately under its lock.
type JobRunner interface {
	RunOnce(ctx context.Context, name string) (bool, error)
}

type AdminHandler struct {
	auth   config.AuthConfig
	jobs   JobRunner
	logger *slog.Logger
}

func NewAdminHandler(auth config.AuthConfig, jobs JobRunner, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		auth:   auth,
		jobs:   jobs,
		logger: logger,
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges the configured admin credentials for an admin JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	if h.auth.AdminPasswordHash == "" {
		h.logger.Warn("admin login attempted but ADMIN_PASSWORD_HASH is not set")
		return response.Unauthorized(c)
	}
	if !strings.EqualFold(input.Email, h.auth.AdminEmail) {
		return response.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.auth.AdminPasswordHash), []byte(input.Password)); err != nil {
		h.logger.Info("admin login rejected", "email", input.Email, "ip", c.IP())
		return response.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.auth.JWTSecret, h.auth.TokenTTL, &models.UserClaims{
		UserID: adminUserID,
		Email:  h.auth.AdminEmail,
		Role:   models.RoleAdmin,
	})
	if err != nil {
		h.logger.Error("failed to sign admin token", "error", err)
		return response.ServerError(c, "Failed to generate token")
	}

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(h.auth.TokenTTL.Seconds()),
	})
}

// Sweep triggers one pending-transfer sweep. It answers 409 when a sweep is
// already running anywhere.
func (h *AdminHandler) Sweep(c *fiber.Ctx) error {
	ran, err := h.jobs.RunOnce(c.UserContext(), sweeper.JobName)
	if err != nil {
		h.logger.Error("manual sweep failed", "error", err)
		return response.ServerError(c, "Sweep failed: "+err.Error())
	}
	if !ran {
		return response.Error(c, fiber.StatusConflict, "A sweep is already running")
	}
	return response.Success(c, "Sweep completed", nil)
}
