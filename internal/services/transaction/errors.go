package transaction

import "errors"

// Service errors
var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInsufficientBalance   = errors.New("insufficient wallet balance")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrWalletLocked          = errors.New("wallet is locked")
	ErrInvalidBeneficiary    = errors.New("beneficiary account number, bank code and name are required")
	ErrStripeAccountRequired = errors.New("beneficiary_stripe_account must be a Stripe connected account id (acct_...)")
)
