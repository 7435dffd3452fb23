package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/repositories"
)

// FeeCalculator prices an outbound transfer.
type FeeCalculator interface {
	TransferFees(amount, discount money.Money) ([]models.TransactionFee, error)
}

// Service creates SEND_MONEY transactions and serves transaction history.
// Created transactions stay PENDING until the transfer sweep processes them.
type Service struct {
	store  repositories.Store
	fees   FeeCalculator
	cast   money.Cast
	logger *slog.Logger

	requireStripeAccount bool
}

type Option func(*Service)

// WithStripeAccountRequired rejects transfers without a connected account id.
// Set it when payouts go through Stripe.
func WithStripeAccountRequired() Option {
	return func(s *Service) { s.requireStripeAccount = true }
}

func NewService(store repositories.Store, fees FeeCalculator, cur money.Currency, logger *slog.Logger, opts ...Option) *Service {
	if store == nil {
		panic("store is required")
	}
	if fees == nil {
		panic("fee calculator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		fees:   fees,
		cast:   money.NewCast(cur),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMoney debits the sender for amount plus fees and records a PENDING
// SEND_MONEY transaction, atomically.
func (s *Service) SendMoney(ctx context.Context, req SendMoneyRequest) (*models.Transaction, error) {
	if strings.TrimSpace(req.BeneficiaryAccountNumber) == "" ||
		strings.TrimSpace(req.BeneficiaryBankCode) == "" ||
		strings.TrimSpace(req.BeneficiaryName) == "" {
		return nil, ErrInvalidBeneficiary
	}
	if err := s.checkStripeAccount(req.BeneficiaryStripeAccount); err != nil {
		return nil, err
	}

	amount, err := s.amount(req.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", money.ErrInvalidAmount)
	}

	discount := money.Zero(s.cast.Currency)
	if req.Discount != "" {
		if discount, err = s.amount(req.Discount); err != nil {
			return nil, err
		}
	}

	fees, err := s.fees.TransferFees(amount, discount)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:                   req.UserID,
		Type:                     models.TransactionTypeSendMoney,
		Status:                   models.TransactionStatusPending,
		Amount:                   amount,
		Narration:                req.Narration,
		BeneficiaryAccountNumber: req.BeneficiaryAccountNumber,
		BeneficiaryBankCode:      req.BeneficiaryBankCode,
		BeneficiaryName:          req.BeneficiaryName,
		BeneficiaryStripeAccount: req.BeneficiaryStripeAccount,
		Fees:                     fees,
	}
	total, err := tx.Total()
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTransaction(ctx, func(store repositories.Store) error {
		wallet, err := store.Wallets().LockByUserID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if !wallet.IsActive() {
			return ErrWalletLocked
		}

		remaining, err := wallet.Balance.Sub(total)
		if err != nil {
			return err
		}
		if remaining.IsNegative() {
			return fmt.Errorf("%w: available %s, required %s", ErrInsufficientBalance, wallet.Balance, total)
		}

		wallet.Balance = remaining
		if err := store.Wallets().Save(ctx, wallet); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if err := store.Transactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("send money initiated",
		"reference", tx.Reference,
		"user_id", tx.UserID,
		"amount", tx.Amount.String(),
		"total", total.String(),
	)
	return tx, nil
}

// Get returns one of the user's transactions by reference.
func (s *Service) Get(ctx context.Context, userID uint, reference string) (*models.Transaction, error) {
	tx, err := s.store.Transactions().FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// List returns a page of the user's transactions, newest first.
func (s *Service) List(ctx context.Context, userID uint, page, limit int) ([]models.Transaction, int64, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return s.store.Transactions().ListByUser(ctx, userID, limit, (page-1)*limit)
}

func (s *Service) checkStripeAccount(account string) error {
	if account == "" {
		if s.requireStripeAccount {
			return ErrStripeAccountRequired
		}
		return nil
	}
	if !strings.HasPrefix(account, "acct_") {
		return ErrStripeAccountRequired
	}
	return nil
}

func (s *Service) amount(raw json.Number) (money.Money, error) {
	minor, err := s.cast.Store(raw)
	if err != nil {
		return money.Money{}, err
	}
	return s.cast.Load(minor), nil
}
