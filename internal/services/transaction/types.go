package transaction

import "encoding/json"

// SendMoneyRequest initiates an outbound transfer. Amount and Discount are
// major units (for example "1500.25") and go through the money cast.
// BeneficiaryStripeAccount is the Stripe Connect destination (acct_...) and
// is required when payouts go through Stripe.
type SendMoneyRequest struct {
	UserID                   uint        `json:"-"` // Set by handler
	Amount                   json.Number `json:"amount" validate:"required"`
	Discount                 json.Number `json:"discount,omitempty"`
	BeneficiaryAccountNumber string      `json:"beneficiary_account_number" validate:"required,numeric"`
	BeneficiaryBankCode      string      `json:"beneficiary_bank_code" validate:"required,numeric"`
	BeneficiaryName          string      `json:"beneficiary_name" validate:"required"`
	BeneficiaryStripeAccount string      `json:"beneficiary_stripe_account,omitempty" validate:"omitempty,startswith=acct_"`
	Narration                string      `json:"narration" validate:"max=140"`
}
