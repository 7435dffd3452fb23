package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/services/wallet"
	"transactx/internal/utils"
	"transactx/internal/utils/response"
	"transactx/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletService interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CreateWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error)
	Credit(ctx context.Context, userID uint, amount json.Number, narration string) (*models.Transaction, error)
}

type WalletHandler struct {
	service WalletService
	logger  *slog.Logger
}

func NewWalletHandler(service WalletService, logger *slog.Logger) *WalletHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.service.GetWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return response.Success(c, "Wallet retrieved", w)
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, created, err := h.service.CreateWallet(c.UserContext(), claims.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}
	if created {
		return response.Created(c, "Wallet created", w)
	}
	return response.Success(c, "Wallet already exists", w)
}

type creditInput struct {
	Amount    json.Number `json:"amount" validate:"required"`
	Narration string      `json:"narration" validate:"max=140"`
}

// CreditWallet is the admin deposit endpoint.
func (h *WalletHandler) CreditWallet(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userID"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input creditInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(input); err != nil {
		return response.ValidationError(c, err.Error())
	}

	tx, err := h.service.Credit(c.UserContext(), uint(userID), input.Amount, input.Narration)
	if err != nil {
		return h.serviceError(c, err)
	}
	return response.Created(c, "Wallet credited", tx)
}

func (h *WalletHandler) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, wallet.ErrWalletLocked):
		return response.Error(c, fiber.StatusForbidden, err.Error())
	default:
		h.logger.Error("wallet request failed", "path", c.Path(), "error", err)
		return response.ServerError(c, "Internal server error")
	}
}
