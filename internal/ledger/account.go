package ledger

import (
	"fmt"

	"PayEngine/internal/money"
	"PayEngine/internal/record"
)

// Account is the per-client balance state. It is created lazily on first
// reference, never deleted, and mutated only through Ledger.Apply.
type Account struct {
	client    record.ClientID
	available money.Amount
	held      money.Amount
	locked    bool
}

func newAccount(client record.ClientID) *Account {
	return &Account{client: client}
}

func (a *Account) Client() record.ClientID { return a.client }
func (a *Account) Available() money.Amount { return a.available }
func (a *Account) Held() money.Amount      { return a.held }
func (a *Account) Locked() bool            { return a.locked }

// Total is available + held. It is always derived, never stored.
func (a *Account) Total() (money.Amount, error) {
	return a.available.Add(a.held)
}

// AccountView is the externally visible snapshot of one account.
type AccountView struct {
	Client    record.ClientID
	Available money.Amount
	Held      money.Amount
	Total     money.Amount
	Locked    bool
}

// view materializes the account. Every mutation path re-validates the total,
// so a failure here is a programming defect, not a business outcome.
func (a *Account) view() AccountView {
	total, err := a.Total()
	if err != nil {
		panic(fmt.Sprintf("FATAL: account %d total overflow: %v", a.client, err))
	}
	return AccountView{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     total,
		Locked:    a.locked,
	}
}
