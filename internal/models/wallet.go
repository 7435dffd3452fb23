package models

import (
	"time"

	"gorm.io/gorm"

	"transactx/internal/money"
)

const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

type Wallet struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	UserID    uint        `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   money.Money `gorm:"type:bigint;not null;serializer:money;currency:NGN" json:"balance"`
	Status    string      `gorm:"default:'active'" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.Status == "" {
		w.Status = WalletStatusActive
	}
	return nil
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
