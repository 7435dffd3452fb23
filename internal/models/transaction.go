package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"transactx/internal/money"
)

type TransactionType string

// Transaction types
const (
	TransactionTypeSendMoney    TransactionType = "SEND_MONEY"
	TransactionTypeDeposit      TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal   TransactionType = "WITHDRAWAL"
	TransactionTypeBillPayment  TransactionType = "BILL_PAYMENT"
	TransactionTypeSubscription TransactionType = "SUBSCRIPTION"
)

type TransactionStatus string

// Transaction statuses. SUCCESSFUL and FAILED are terminal.
const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// Transaction is a money movement owned by a user. Amount is persisted as
// NGN kobo through the money serializer.
type Transaction struct {
	ID                       uint              `gorm:"primarykey" json:"id"`
	Reference                string            `gorm:"uniqueIndex;not null" json:"reference"`
	UserID                   uint              `gorm:"index;not null" json:"user_id"`
	Type                     TransactionType   `gorm:"index:idx_transactions_type_status;not null" json:"type"`
	Status                   TransactionStatus `gorm:"index:idx_transactions_type_status;not null;default:'PENDING'" json:"status"`
	Amount                   money.Money       `gorm:"type:bigint;not null;serializer:money;currency:NGN" json:"amount"`
	Narration                string            `json:"narration"`
	BeneficiaryAccountNumber string            `json:"beneficiary_account_number"`
	BeneficiaryBankCode      string            `json:"beneficiary_bank_code"`
	BeneficiaryName          string            `json:"beneficiary_name"`
	BeneficiaryStripeAccount string            `json:"beneficiary_stripe_account,omitempty"`
	ProviderReference        string            `json:"provider_reference,omitempty"`
	FailureReason            string            `json:"failure_reason,omitempty"`
	Metadata                 JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	Fees                     []TransactionFee  `gorm:"foreignKey:TransactionID" json:"fees,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	return nil
}

// IsPendingTransfer reports whether the sweep should pick this transaction up.
func (t *Transaction) IsPendingTransfer() bool {
	return t.Type == TransactionTypeSendMoney && t.Status == TransactionStatusPending
}

// FeeTotal sums the fee rows, discounts included.
func (t *Transaction) FeeTotal() (money.Money, error) {
	amounts := make([]money.Money, len(t.Fees))
	for i, f := range t.Fees {
		amounts[i] = f.Amount
	}
	return money.Sum(t.Amount.Currency(), amounts...)
}

// Total is the amount debited from the sender: principal plus fees.
func (t *Transaction) Total() (money.Money, error) {
	fees, err := t.FeeTotal()
	if err != nil {
		return money.Money{}, err
	}
	return t.Amount.Add(fees)
}
