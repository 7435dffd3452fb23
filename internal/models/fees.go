package models

import (
	"time"

	"transactx/internal/money"
)

type FeeKind string

const (
	FeeKindTransfer FeeKind = "TRANSFER_FEE"
	FeeKindVAT      FeeKind = "VAT"
	FeeKindDiscount FeeKind = "DISCOUNT"
)

// TransactionFee is one charge attached to a transaction. Discounts are
// stored as negative amounts.
type TransactionFee struct {
	ID            uint        `gorm:"primarykey" json:"id"`
	TransactionID uint        `gorm:"index;not null" json:"transaction_id"`
	Kind          FeeKind     `gorm:"not null" json:"kind"`
	Amount        money.Money `gorm:"type:bigint;not null;serializer:money;currency:NGN" json:"amount"`
	CreatedAt     time.Time   `json:"created_at"`
}
