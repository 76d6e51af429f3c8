package record

import (
	"PayEngine/internal/money"
)

// ClientID identifies one account holder.
type ClientID uint16

// TxID identifies one deposit or withdrawal. Dispute, resolve and chargeback
// records reference the TxID of the transaction they act on.
type TxID uint32

// Kind discriminates the five record payloads.
type Kind int32

const (
	KindUnknown Kind = iota
	KindDeposit
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindDispute:
		return "dispute"
	case KindResolve:
		return "resolve"
	case KindChargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// KindFromString maps the wire name (CSV type column, JSON type field) to a
// Kind. Unrecognized names map to KindUnknown.
func KindFromString(s string) Kind {
	switch s {
	case "deposit":
		return KindDeposit
	case "withdrawal":
		return KindWithdrawal
	case "dispute":
		return KindDispute
	case "resolve":
		return KindResolve
	case "chargeback":
		return KindChargeback
	default:
		return KindUnknown
	}
}

// Record is one input event, fully validated by the ingestion layer.
// Amount is meaningful only for KindDeposit and KindWithdrawal; the other
// three kinds carry no amount of their own.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount money.Amount
}

// HasAmount reports whether this record kind carries an amount.
func (r Record) HasAmount() bool {
	return r.Kind == KindDeposit || r.Kind == KindWithdrawal
}

// Disputable reports whether this record kind creates disputable history.
func (r Record) Disputable() bool {
	return r.Kind == KindDeposit || r.Kind == KindWithdrawal
}
