package wallet

import "errors"

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletLocked   = errors.New("wallet is locked")
)
