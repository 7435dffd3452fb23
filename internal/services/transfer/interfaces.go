package transfer

import (
	"context"
	"errors"

	"transactx/internal/models"
)

// ErrPayoutRejected marks a permanent provider refusal. The transaction is
// failed and the sender refunded. Any other provider error leaves the
// transaction PENDING for the next sweep.
var ErrPayoutRejected = errors.New("payout rejected")

// PayoutProvider moves money to the beneficiary bank account. Implementations
// must treat tx.Reference as an idempotency key.
type PayoutProvider interface {
	Payout(ctx context.Context, tx *models.Transaction) (providerReference string, err error)
}
