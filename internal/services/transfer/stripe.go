package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v72"
	stripetransfer "github.com/stripe/stripe-go/v72/transfer"

	"transactx/internal/models"
)

// TransferCreator is the subset of the Stripe transfer client we use.
type TransferCreator interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

// StripePayoutProvider pays out through Stripe Connect transfers to the
// beneficiary's connected account. The bank account number and bank code are
// kept on the transaction for the record only.
type StripePayoutProvider struct {
	client TransferCreator
}

func NewStripePayoutProvider(secretKey string) *StripePayoutProvider {
	return NewStripePayoutProviderWithClient(stripetransfer.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey})
}

func NewStripePayoutProviderWithClient(client TransferCreator) *StripePayoutProvider {
	return &StripePayoutProvider{client: client}
}

func (p *StripePayoutProvider) Payout(ctx context.Context, tx *models.Transaction) (string, error) {
	if !strings.HasPrefix(tx.BeneficiaryStripeAccount, "acct_") {
		return "", fmt.Errorf("%w: %q is not a connected account", ErrPayoutRejected, tx.BeneficiaryStripeAccount)
	}

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(tx.Amount.Minor()),
		Currency:      stripe.String(strings.ToLower(tx.Amount.Currency().Code())),
		Destination:   stripe.String(tx.BeneficiaryStripeAccount),
		Description:   stripe.String(tx.Narration),
		TransferGroup: stripe.String(tx.Reference),
	}
	params.Context = ctx
	params.SetIdempotencyKey(tx.Reference)
	params.AddMetadata("reference", tx.Reference)

	out, err := p.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return "", fmt.Errorf("%w: %s", ErrPayoutRejected, stripeErr.Msg)
		}
		return "", err
	}
	return out.ID, nil
}

// LogPayoutProvider only logs. It is used when no Stripe key is configured.
type LogPayoutProvider struct {
	Logger *slog.Logger
}

func (p LogPayoutProvider) Payout(ctx context.Context, tx *models.Transaction) (string, error) {
	p.Logger.Info("payout (dry run)",
		"reference", tx.Reference,
		"amount", tx.Amount.String(),
		"beneficiary", tx.BeneficiaryAccountNumber,
		"bank_code", tx.BeneficiaryBankCode,
	)
	return "dry-run-" + tx.Reference, nil
}
