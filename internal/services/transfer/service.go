package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"transactx/internal/models"
	"transactx/internal/repositories"
)

// Service processes pending SEND_MONEY transactions.
type Service struct {
	store    repositories.Store
	provider PayoutProvider
	logger   *slog.Logger
}

// NewService creates a new transfer service instance.
func NewService(store repositories.Store, provider PayoutProvider, logger *slog.Logger) *Service {
	if store == nil {
		panic("store is required")
	}
	if provider == nil {
		panic("payout provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, provider: provider, logger: logger}
}

// Process pays out one transaction. The row is re-read under a lock and
// skipped unless it is still a PENDING transfer, so concurrent or repeated
// calls pay out at most once.
func (s *Service) Process(ctx context.Context, tx *models.Transaction) error {
	return s.store.WithinTransaction(ctx, func(store repositories.Store) error {
		current, err := store.Transactions().LockByID(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("failed to lock transaction %d: %w", tx.ID, err)
		}
		if !current.IsPendingTransfer() {
			s.logger.Debug("transfer already processed", "reference", current.Reference, "status", current.Status)
			*tx = *current
			return nil
		}

		providerRef, err := s.provider.Payout(ctx, current)
		switch {
		case err == nil:
			current.Status = models.TransactionStatusSuccessful
			current.ProviderReference = providerRef
		case errors.Is(err, ErrPayoutRejected):
			current.Status = models.TransactionStatusFailed
			current.FailureReason = err.Error()
			if err := s.refund(ctx, store, current); err != nil {
				return err
			}
		default:
			return fmt.Errorf("payout %s: %w", current.Reference, err)
		}

		if err := store.Transactions().Save(ctx, current); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", current.Reference, err)
		}

		s.logger.Info("transfer processed",
			"reference", current.Reference,
			"status", current.Status,
			"provider_reference", current.ProviderReference,
		)
		*tx = *current
		return nil
	})
}

// refund credits the sender with the amount and fees debited at initiation.
func (s *Service) refund(ctx context.Context, store repositories.Store, tx *models.Transaction) error {
	total, err := tx.Total()
	if err != nil {
		return err
	}
	wallet, err := store.Wallets().LockByUserID(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("failed to get wallet for refund of %s: %w", tx.Reference, err)
	}
	if wallet.Balance, err = wallet.Balance.Add(total); err != nil {
		return err
	}
	if err := store.Wallets().Save(ctx, wallet); err != nil {
		return fmt.Errorf("failed to refund %s: %w", tx.Reference, err)
	}
	return nil
}
