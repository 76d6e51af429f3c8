package ledger

import (
	"PayEngine/internal/money"
	"PayEngine/internal/record"
)

// DisputeStatus tracks where a disputable transaction sits in its dispute
// lifecycle: None -> Disputed -> {Resolved, ChargedBack}. Resolved and
// ChargedBack are terminal; a settled transaction cannot be re-disputed.
type DisputeStatus uint8

const (
	StatusNone DisputeStatus = iota
	StatusDisputed
	StatusResolved
	StatusChargedBack
)

func (s DisputeStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusDisputed:
		return "disputed"
	case StatusResolved:
		return "resolved"
	case StatusChargedBack:
		return "charged_back"
	default:
		return "unknown"
	}
}

// historyEntry is the retained record of one accepted deposit or withdrawal.
// It is the only lookup mechanism for dispute, resolve and chargeback, and is
// never deleted, so a charged-back transaction stays unreferenceable forever.
type historyEntry struct {
	client record.ClientID
	amount money.Amount
	kind   record.Kind
	status DisputeStatus
}
