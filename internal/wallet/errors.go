package wallet

import (
	"errors"

	"africoin/internal/account"
	"africoin/internal/identity"
	"africoin/internal/ledger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("amount must be a positive integer string")
	ErrSelfTransfer       = errors.New("cannot transfer to the same account")

	// Storage-level outcomes surfaced unchanged.
	ErrInvalidPhone         = identity.ErrInvalidPhone
	ErrAccountExists        = account.ErrAccountExists
	ErrAccountNotFound      = account.ErrAccountNotFound
	ErrInsufficientBalance  = account.ErrInsufficientBalance
	ErrDuplicateTransaction = ledger.ErrDuplicateTransaction
)
