package handlers

import (
	"context"
	"errors"
	"log/slog"

	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/services/transaction"
	"transactx/internal/utils"
	"transactx/internal/utils/response"
	"transactx/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// TransactionService is the subset of transaction.Service the handlers use.
type TransactionService interface {
	SendMoney(ctx context.Context, req transaction.SendMoneyRequest) (*models.Transaction, error)
	Get(ctx context.Context, userID uint, reference string) (*models.Transaction, error)
	List(ctx context.Context, userID uint, page, limit int) ([]models.Transaction, int64, error)
}

type TransactionHandler struct {
	service TransactionService
	logger  *slog.Logger
}

func NewTransactionHandler(service TransactionService, logger *slog.Logger) *TransactionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

// SendMoney debits the caller's wallet and queues the transfer for the sweep.
func (h *TransactionHandler) SendMoney(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var req transaction.SendMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationError(c, err.Error())
	}
	req.UserID = claims.UserID

	tx, err := h.service.SendMoney(c.UserContext(), req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return response.Created(c, "Transfer queued", tx)
}

func (h *TransactionHandler) GetUserTransactions(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	p := utils.GetPagination(c, transaction.DefaultPageSize, transaction.MaxPageSize)
	txs, total, err := h.service.List(c.UserContext(), claims.UserID, p.Page, p.Limit)
	if err != nil {
		return h.serviceError(c, err)
	}
	p.SetTotal(total)

	return c.JSON(utils.NewPaginatedResponse(txs, p))
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	tx, err := h.service.Get(c.UserContext(), claims.UserID, c.Params("reference"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return response.Success(c, "Transaction retrieved", tx)
}

func (h *TransactionHandler) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, transaction.ErrInvalidBeneficiary),
		errors.Is(err, transaction.ErrStripeAccountRequired):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, transaction.ErrTransactionNotFound),
		errors.Is(err, transaction.ErrWalletNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, transaction.ErrWalletLocked):
		return response.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, transaction.ErrInsufficientBalance):
		return response.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("transaction request failed", "path", c.Path(), "error", err)
		return response.ServerError(c, "Internal server error")
	}
}
