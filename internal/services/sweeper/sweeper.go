// Package sweeper finds SEND_MONEY transactions still PENDING and hands each
// one to the transfer operation.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"transactx/internal/models"
)

// JobName identifies the sweep for scheduling and locking.
const JobName = "process-pending-transfers"

// ErrorPolicy decides what a failing transfer does to the rest of a pass.
type ErrorPolicy string

const (
	// PolicyAbort stops the pass at the first failure; later transactions wait
	// for the next run.
	PolicyAbort ErrorPolicy = "abort"
	// PolicyIsolate logs each failure and carries on with the next transaction.
	PolicyIsolate ErrorPolicy = "isolate"
)

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch p := ErrorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyAbort, nil
	case PolicyAbort, PolicyIsolate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown sweep error policy %q", s)
	}
}

// TransactionFinder selects SEND_MONEY transactions in PENDING status with
// their fees loaded.
type TransactionFinder interface {
	FindPendingTransfers(ctx context.Context) ([]models.Transaction, error)
}

// Transferer processes one transaction.
type Transferer interface {
	Process(ctx context.Context, tx *models.Transaction) error
}

type Sweeper struct {
	finder     TransactionFinder
	transferer Transferer
	policy     ErrorPolicy
	logger     *slog.Logger
}

func New(finder TransactionFinder, transferer Transferer, policy ErrorPolicy, logger *slog.Logger) *Sweeper {
	if policy == "" {
		policy = PolicyAbort
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		finder:     finder,
		transferer: transferer,
		policy:     policy,
		logger:     logger,
	}
}

// Sweep runs one pass. Transactions are processed one at a time in retrieval
// order. Under PolicyAbort the first transfer error is returned immediately;
// under PolicyIsolate all errors are joined and returned after the pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	started := time.Now()

	pending, err := s.finder.FindPendingTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending transfers: %w", err)
	}

	var (
		processed int
		errs      []error
	)
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		tx := &pending[i]
		if err := s.transferer.Process(ctx, tx); err != nil {
			err = fmt.Errorf("transfer %s: %w", tx.Reference, err)
			if s.policy == PolicyAbort {
				s.logger.Error("sweep aborted",
					"reference", tx.Reference,
					"remaining", len(pending)-i-1,
					"error", err,
				)
				return err
			}
			s.logger.Warn("transfer failed, continuing sweep", "reference", tx.Reference, "error", err)
			errs = append(errs, err)
			continue
		}
		processed++
	}

	s.logger.Info("sweep finished",
		"pending", len(pending),
		"processed", processed,
		"failed", len(errs),
		"duration", time.Since(started),
	)
	return errors.Join(errs...)
}
