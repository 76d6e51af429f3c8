package ledger

import (
	"errors"

	"PayEngine/internal/money"
)

// Rejection errors. Every non-nil Apply result is one of these (possibly
// wrapped); none of them is fatal to a run — the record is dropped and the
// ledger is left unchanged.
var (
	ErrAccountLocked     = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrDuplicateTx       = errors.New("transaction id already used")
	ErrUnknownTx         = errors.New("referenced transaction not found")
	ErrClientMismatch    = errors.New("referenced transaction belongs to another client")
	ErrAlreadyDisputed   = errors.New("transaction already disputed or settled")
	ErrNotDisputed       = errors.New("transaction is not under dispute")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrUnknownKind       = errors.New("unknown record kind")
)

// Reason maps a rejection error to a stable label for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrAccountLocked):
		return "locked"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrDuplicateTx):
		return "duplicate_tx"
	case errors.Is(err, ErrUnknownTx):
		return "unknown_tx"
	case errors.Is(err, ErrClientMismatch):
		return "client_mismatch"
	case errors.Is(err, ErrAlreadyDisputed):
		return "already_disputed"
	case errors.Is(err, ErrNotDisputed):
		return "not_disputed"
	case errors.Is(err, ErrNegativeAmount):
		return "negative_amount"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, money.ErrOverflow):
		return "overflow"
	default:
		return "other"
	}
}
