package ledger

import (
	"fmt"
	"sort"

	"PayEngine/internal/record"
)

// Ledger owns every account and the history of disputable transactions.
// All mutation goes through Apply, one record at a time; there is no
// concurrent access and no operation blocks.
type Ledger struct {
	accounts     map[record.ClientID]*Account
	history      map[record.TxID]*historyEntry
	openDisputes int
}

func New() *Ledger {
	return &Ledger{
		accounts: make(map[record.ClientID]*Account),
		history:  make(map[record.TxID]*historyEntry),
	}
}

// account returns the client's account, creating it on first reference.
func (l *Ledger) account(client record.ClientID) *Account {
	acct, ok := l.accounts[client]
	if !ok {
		acct = newAccount(client)
		l.accounts[client] = acct
	}
	return acct
}

// Apply runs one record through the account state machine. A nil result
// means the record was accepted and balances changed; a non-nil result is a
// business-rule rejection and the ledger is guaranteed unchanged. Apply
// never blocks and never aborts a run.
func (l *Ledger) Apply(rec record.Record) error {
	switch rec.Kind {
	case record.KindDeposit:
		return l.applyDeposit(rec)
	case record.KindWithdrawal:
		return l.applyWithdrawal(rec)
	case record.KindDispute:
		return l.applyDispute(rec)
	case record.KindResolve:
		return l.applyResolve(rec)
	case record.KindChargeback:
		return l.applyChargeback(rec)
	default:
		return fmt.Errorf("kind %d: %w", rec.Kind, ErrUnknownKind)
	}
}

func (l *Ledger) applyDeposit(rec record.Record) error {
	if rec.Amount.IsNegative() {
		return fmt.Errorf("deposit tx %d: %w", rec.Tx, ErrNegativeAmount)
	}
	if _, exists := l.history[rec.Tx]; exists {
		return fmt.Errorf("deposit tx %d: %w", rec.Tx, ErrDuplicateTx)
	}

	acct := l.account(rec.Client)
	if acct.locked {
		return fmt.Errorf("deposit tx %d: %w", rec.Tx, ErrAccountLocked)
	}

	available, err := acct.available.Add(rec.Amount)
	if err != nil {
		return fmt.Errorf("deposit tx %d: %w", rec.Tx, err)
	}

	acct.available = available
	l.history[rec.Tx] = &historyEntry{
		client: rec.Client,
		amount: rec.Amount,
		kind:   record.KindDeposit,
		status: StatusNone,
	}
	return nil
}

func (l *Ledger) applyWithdrawal(rec record.Record) error {
	if rec.Amount.IsNegative() {
		return fmt.Errorf("withdrawal tx %d: %w", rec.Tx, ErrNegativeAmount)
	}
	if _, exists := l.history[rec.Tx]; exists {
		return fmt.Errorf("withdrawal tx %d: %w", rec.Tx, ErrDuplicateTx)
	}

	acct := l.account(rec.Client)
	if acct.locked {
		return fmt.Errorf("withdrawal tx %d: %w", rec.Tx, ErrAccountLocked)
	}
	if acct.available.Cmp(rec.Amount) < 0 {
		return fmt.Errorf("withdrawal tx %d: have %s, want %s: %w",
			rec.Tx, acct.available, rec.Amount, ErrInsufficientFunds)
	}

	available, err := acct.available.Sub(rec.Amount)
	if err != nil {
		return fmt.Errorf("withdrawal tx %d: %w", rec.Tx, err)
	}

	acct.available = available
	l.history[rec.Tx] = &historyEntry{
		client: rec.Client,
		amount: rec.Amount,
		kind:   record.KindWithdrawal,
		status: StatusNone,
	}
	return nil
}

// lookupEntry resolves a dispute-lifecycle reference: the entry must exist
// and must belong to the referencing client. This is the guard against
// cross-client transaction forgery.
func (l *Ledger) lookupEntry(rec record.Record) (*historyEntry, error) {
	entry, ok := l.history[rec.Tx]
	if !ok {
		return nil, fmt.Errorf("%s tx %d: %w", rec.Kind, rec.Tx, ErrUnknownTx)
	}
	if entry.client != rec.Client {
		return nil, fmt.Errorf("%s tx %d: owner %d, referenced by %d: %w",
			rec.Kind, rec.Tx, entry.client, rec.Client, ErrClientMismatch)
	}
	return entry, nil
}

func (l *Ledger) applyDispute(rec record.Record) error {
	entry, err := l.lookupEntry(rec)
	if err != nil {
		return err
	}
	if entry.status != StatusNone {
		return fmt.Errorf("dispute tx %d: status %s: %w", rec.Tx, entry.status, ErrAlreadyDisputed)
	}

	// Disputing moves the funds whether or not they are still available.
	// When a disputed deposit was already spent, available goes negative
	// until the dispute settles; only the hold must stay non-negative.
	acct := l.account(rec.Client)
	available, err := acct.available.Sub(entry.amount)
	if err != nil {
		return fmt.Errorf("dispute tx %d: %w", rec.Tx, err)
	}
	held, err := acct.held.Add(entry.amount)
	if err != nil {
		return fmt.Errorf("dispute tx %d: %w", rec.Tx, err)
	}

	acct.available = available
	acct.held = held
	entry.status = StatusDisputed
	l.openDisputes++
	return nil
}

func (l *Ledger) applyResolve(rec record.Record) error {
	entry, err := l.lookupEntry(rec)
	if err != nil {
		return err
	}
	if entry.status != StatusDisputed {
		return fmt.Errorf("resolve tx %d: status %s: %w", rec.Tx, entry.status, ErrNotDisputed)
	}

	acct := l.account(rec.Client)
	held, err := acct.held.Sub(entry.amount)
	if err != nil {
		return fmt.Errorf("resolve tx %d: %w", rec.Tx, err)
	}
	available, err := acct.available.Add(entry.amount)
	if err != nil {
		return fmt.Errorf("resolve tx %d: %w", rec.Tx, err)
	}

	acct.held = held
	acct.available = available
	entry.status = StatusResolved
	l.openDisputes--
	return nil
}

func (l *Ledger) applyChargeback(rec record.Record) error {
	entry, err := l.lookupEntry(rec)
	if err != nil {
		return err
	}
	if entry.status != StatusDisputed {
		return fmt.Errorf("chargeback tx %d: status %s: %w", rec.Tx, entry.status, ErrNotDisputed)
	}

	acct := l.account(rec.Client)
	held, err := acct.held.Sub(entry.amount)
	if err != nil {
		return fmt.Errorf("chargeback tx %d: %w", rec.Tx, err)
	}

	acct.held = held
	acct.locked = true
	entry.status = StatusChargedBack
	l.openDisputes--
	return nil
}

// === Queries ===

// DisputeStatus returns the lifecycle status of a disputable transaction.
func (l *Ledger) DisputeStatus(tx record.TxID) (DisputeStatus, bool) {
	entry, ok := l.history[tx]
	if !ok {
		return StatusNone, false
	}
	return entry.status, true
}

// AccountCount returns the number of accounts ever referenced.
func (l *Ledger) AccountCount() int {
	return len(l.accounts)
}

// OpenDisputes returns the number of transactions currently disputed.
func (l *Ledger) OpenDisputes() int {
	return l.openDisputes
}

// Snapshot returns a view of every account ever referenced, client ids
// ascending for deterministic output.
func (l *Ledger) Snapshot() []AccountView {
	views := make([]AccountView, 0, len(l.accounts))
	for _, acct := range l.accounts {
		views = append(views, acct.view())
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Client < views[j].Client
	})
	return views
}

// === Invariant Checks ===

// ValidateAvailableNonNegative checks available >= 0. Run after deposits and
// withdrawals; an open dispute of already-spent funds may legitimately leave
// available negative, so it does not apply after dispute-lifecycle records.
func (l *Ledger) ValidateAvailableNonNegative(client record.ClientID) error {
	if acct, ok := l.accounts[client]; ok && acct.available.IsNegative() {
		return fmt.Errorf("client %d has negative available balance: %s", client, acct.available)
	}
	return nil
}

// ValidateHeldNonNegative checks held >= 0 for one client.
func (l *Ledger) ValidateHeldNonNegative(client record.ClientID) error {
	if acct, ok := l.accounts[client]; ok && acct.held.IsNegative() {
		return fmt.Errorf("client %d has negative held balance: %s", client, acct.held)
	}
	return nil
}

// ValidateTotal checks that available + held is representable for one client.
func (l *Ledger) ValidateTotal(client record.ClientID) error {
	acct, ok := l.accounts[client]
	if !ok {
		return nil
	}
	if _, err := acct.Total(); err != nil {
		return fmt.Errorf("client %d total: %w", client, err)
	}
	return nil
}
