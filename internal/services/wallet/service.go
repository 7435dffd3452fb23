// Package wallet manages user wallets: opening one, reading the balance and
// crediting deposits. Debits happen in the transaction service when a
// transfer is initiated.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"transactx/internal/models"
	"transactx/internal/money"
	"transactx/internal/repositories"
)

type Service struct {
	store  repositories.Store
	cast   money.Cast
	logger *slog.Logger
}

func NewService(store repositories.Store, cur money.Currency, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cast:   money.NewCast(cur),
		logger: logger,
	}
}

func (s *Service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// CreateWallet opens an empty wallet for the user, or returns the existing
// one.
func (s *Service) CreateWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error) {
	var (
		w       *models.Wallet
		created bool
	)
	err := s.store.WithinTransaction(ctx, func(store repositories.Store) error {
		existing, err := store.Wallets().LockByUserID(ctx, userID)
		if err == nil {
			w = existing
			return nil
		}
		if !errors.Is(err, repositories.ErrWalletNotFound) {
			return fmt.Errorf("failed to get wallet: %w", err)
		}

		w = &models.Wallet{
			UserID:  userID,
			Balance: money.Zero(s.cast.Currency),
			Status:  models.WalletStatusActive,
		}
		if err := store.Wallets().Create(ctx, w); err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("wallet created", "user_id", userID, "wallet_id", w.ID)
	}
	return w, created, nil
}

// Credit adds a deposit to the user's wallet and records it as a SUCCESSFUL
// DEPOSIT transaction.
func (s *Service) Credit(ctx context.Context, userID uint, raw json.Number, narration string) (*models.Transaction, error) {
	minor, err := s.cast.Store(raw)
	if err != nil {
		return nil, err
	}
	amount := s.cast.Load(minor)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", money.ErrInvalidAmount)
	}

	tx := &models.Transaction{
		UserID:    userID,
		Type:      models.TransactionTypeDeposit,
		Status:    models.TransactionStatusSuccessful,
		Amount:    amount,
		Narration: narration,
	}
	err = s.store.WithinTransaction(ctx, func(store repositories.Store) error {
		w, err := store.Wallets().LockByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if !w.IsActive() {
			return ErrWalletLocked
		}

		if w.Balance, err = w.Balance.Add(amount); err != nil {
			return err
		}
		if err := store.Wallets().Save(ctx, w); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		if err := store.Transactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet credited", "user_id", userID, "reference", tx.Reference, "amount", amount.String())
	return tx, nil
}
