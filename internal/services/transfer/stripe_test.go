package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"

	"transactx/internal/models"
	"transactx/internal/money"
)

type fakeTransferClient struct {
	params *stripe.TransferParams
	out    *stripe.Transfer
	err    error
}

func (f *fakeTransferClient) New(params *stripe.TransferParams) (*stripe.Transfer, error) {
	f.params = params
	return f.out, f.err
}

func stripeTx() *models.Transaction {
	return &models.Transaction{
		Reference:                "ref-1",
		Amount:                   money.New(150025, money.NGN),
		BeneficiaryAccountNumber: "0123456789",
		BeneficiaryStripeAccount: "acct_42",
		Narration:                "rent",
	}
}

func TestStripePayoutProvider_Payout(t *testing.T) {
	client := &fakeTransferClient{out: &stripe.Transfer{ID: "tr_9"}}
	provider := NewStripePayoutProviderWithClient(client)

	id, err := provider.Payout(context.Background(), stripeTx())
	require.NoError(t, err)
	assert.Equal(t, "tr_9", id)

	require.NotNil(t, client.params)
	assert.Equal(t, int64(150025), *client.params.Amount)
	assert.Equal(t, "ngn", *client.params.Currency)
	assert.Equal(t, "acct_42", *client.params.Destination)
	assert.Equal(t, "ref-1", *client.params.IdempotencyKey)
	assert.Equal(t, "ref-1", client.params.Metadata["reference"])
}

func TestStripePayoutProvider_ErrorMapping(t *testing.T) {
	rejected := &fakeTransferClient{err: &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "No such destination"}}
	_, err := (&StripePayoutProvider{client: rejected}).Payout(context.Background(), stripeTx())
	assert.ErrorIs(t, err, ErrPayoutRejected)

	transient := &fakeTransferClient{err: &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "try again"}}
	_, err = (&StripePayoutProvider{client: transient}).Payout(context.Background(), stripeTx())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPayoutRejected)

	for _, account := range []string{"", "0123456789"} {
		tx := stripeTx()
		tx.BeneficiaryStripeAccount = account
		client := &fakeTransferClient{}
		_, err = NewStripePayoutProviderWithClient(client).Payout(context.Background(), tx)
		assert.ErrorIs(t, err, ErrPayoutRejected, "account %q", account)
		assert.Nil(t, client.params)
	}
}
