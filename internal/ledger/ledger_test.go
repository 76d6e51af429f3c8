package ledger_test

import (
	"errors"
	"testing"

	"PayEngine/internal/ledger"
	"PayEngine/internal/money"
	"PayEngine/internal/record"
)

func deposit(client record.ClientID, tx record.TxID, amount string) record.Record {
	return record.Record{Kind: record.KindDeposit, Client: client, Tx: tx, Amount: money.MustParse(amount)}
}

func withdrawal(client record.ClientID, tx record.TxID, amount string) record.Record {
	return record.Record{Kind: record.KindWithdrawal, Client: client, Tx: tx, Amount: money.MustParse(amount)}
}

func dispute(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindDispute, Client: client, Tx: tx}
}

func resolve(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindResolve, Client: client, Tx: tx}
}

func chargeback(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindChargeback, Client: client, Tx: tx}
}

func mustApply(t *testing.T, l *ledger.Ledger, recs ...record.Record) {
	t.Helper()
	for _, r := range recs {
		if err := l.Apply(r); err != nil {
			t.Fatalf("apply %s client=%d tx=%d: %v", r.Kind, r.Client, r.Tx, err)
		}
	}
}

func view(t *testing.T, l *ledger.Ledger, client record.ClientID) ledger.AccountView {
	t.Helper()
	for _, v := range l.Snapshot() {
		if v.Client == client {
			return v
		}
	}
	t.Fatalf("no account for client %d in snapshot", client)
	return ledger.AccountView{}
}

func assertBalances(t *testing.T, v ledger.AccountView, available, held, total string, locked bool) {
	t.Helper()
	if v.Available != money.MustParse(available) {
		t.Errorf("client %d available: got %s, want %s", v.Client, v.Available, available)
	}
	if v.Held != money.MustParse(held) {
		t.Errorf("client %d held: got %s, want %s", v.Client, v.Held, held)
	}
	if v.Total != money.MustParse(total) {
		t.Errorf("client %d total: got %s, want %s", v.Client, v.Total, total)
	}
	if v.Locked != locked {
		t.Errorf("client %d locked: got %v, want %v", v.Client, v.Locked, locked)
	}
}

// ============================================================================
// Test: Deposit / Withdrawal
// ============================================================================

func TestDepositsAndWithdrawal(t *testing.T) {
	// Scenario: two deposits then a withdrawal settle to the net balance.
	l := ledger.New()
	mustApply(t, l,
		deposit(1, 1, "10.0000"),
		deposit(1, 2, "5.0000"),
		withdrawal(1, 3, "3.0000"),
	)

	assertBalances(t, view(t, l, 1), "12.0000", "0.0000", "12.0000", false)
}

func TestWithdrawal_InsufficientFunds(t *testing.T) {
	l := ledger.New()

	err := l.Apply(withdrawal(3, 20, "50.0000"))
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Rejection is a no-op: the lazily created account stays at zero.
	assertBalances(t, view(t, l, 3), "0.0000", "0.0000", "0.0000", false)
}

func TestWithdrawal_ExactBalanceSucceeds(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "4.0000"), withdrawal(1, 2, "4.0000"))

	assertBalances(t, view(t, l, 1), "0.0000", "0.0000", "0.0000", false)
}

func TestDeposit_DuplicateTxRejected(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"))

	if err := l.Apply(deposit(1, 1, "10.0000")); !errors.Is(err, ledger.ErrDuplicateTx) {
		t.Fatalf("same tx id twice: expected ErrDuplicateTx, got %v", err)
	}
	// Tx ids are global across clients and across kinds.
	if err := l.Apply(withdrawal(2, 1, "1.0000")); !errors.Is(err, ledger.ErrDuplicateTx) {
		t.Fatalf("tx id reuse by other client: expected ErrDuplicateTx, got %v", err)
	}

	assertBalances(t, view(t, l, 1), "10.0000", "0.0000", "10.0000", false)
}

func TestDeposit_NegativeAmountRejected(t *testing.T) {
	l := ledger.New()

	err := l.Apply(record.Record{Kind: record.KindDeposit, Client: 1, Tx: 1, Amount: money.MustParse("-1.0000")})
	if !errors.Is(err, ledger.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	err = l.Apply(record.Record{Kind: record.KindWithdrawal, Client: 1, Tx: 2, Amount: money.MustParse("-1.0000")})
	if !errors.Is(err, ledger.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestDeposit_ZeroAmountAccepted(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "0.0000"), withdrawal(1, 2, "0.0000"))

	assertBalances(t, view(t, l, 1), "0.0000", "0.0000", "0.0000", false)
}

// ============================================================================
// Test: Dispute
// ============================================================================

func TestDispute_HoldsDepositedFunds(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(2, 10, "20.0000"), dispute(2, 10))

	assertBalances(t, view(t, l, 2), "0.0000", "20.0000", "20.0000", false)

	status, ok := l.DisputeStatus(10)
	if !ok || status != ledger.StatusDisputed {
		t.Errorf("tx 10 status: got %v/%v, want Disputed", status, ok)
	}
	if l.OpenDisputes() != 1 {
		t.Errorf("open disputes: got %d, want 1", l.OpenDisputes())
	}
}

func TestDispute_UnknownTxRejected(t *testing.T) {
	l := ledger.New()

	err := l.Apply(dispute(4, 99))
	if !errors.Is(err, ledger.ErrUnknownTx) {
		t.Fatalf("expected ErrUnknownTx, got %v", err)
	}
	// No account is touched by the rejection.
	if l.AccountCount() != 0 {
		t.Errorf("account count: got %d, want 0", l.AccountCount())
	}
}

func TestDispute_WrongClientRejected(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"))

	for _, rec := range []record.Record{dispute(2, 1), resolve(2, 1), chargeback(2, 1)} {
		if err := l.Apply(rec); !errors.Is(err, ledger.ErrClientMismatch) {
			t.Errorf("%s by wrong client: expected ErrClientMismatch, got %v", rec.Kind, err)
		}
	}
	assertBalances(t, view(t, l, 1), "10.0000", "0.0000", "10.0000", false)
}

func TestDispute_AlreadyDisputedRejected(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"), dispute(1, 1))

	if err := l.Apply(dispute(1, 1)); !errors.Is(err, ledger.ErrAlreadyDisputed) {
		t.Fatalf("expected ErrAlreadyDisputed, got %v", err)
	}
	assertBalances(t, view(t, l, 1), "0.0000", "10.0000", "10.0000", false)
}

func TestDispute_SpentDepositDrivesAvailableNegative(t *testing.T) {
	// The funds already left the account; disputing the deposit still moves
	// the full amount into held, leaving available negative until settled.
	l := ledger.New()
	mustApply(t, l,
		deposit(1, 1, "10.0000"),
		withdrawal(1, 2, "10.0000"),
		dispute(1, 1),
	)

	assertBalances(t, view(t, l, 1), "-10.0000", "10.0000", "0.0000", false)
}

func TestDispute_WithdrawalIsDisputable(t *testing.T) {
	l := ledger.New()
	mustApply(t, l,
		deposit(1, 1, "10.0000"),
		withdrawal(1, 2, "4.0000"),
		dispute(1, 2),
	)

	assertBalances(t, view(t, l, 1), "2.0000", "4.0000", "6.0000", false)
}

// ============================================================================
// Test: Resolve
// ============================================================================

func TestResolve_RestoresPreDisputeBalances(t *testing.T) {
	// Dispute then resolve is a round trip back to the pre-dispute state.
	l := ledger.New()
	mustApply(t, l, deposit(2, 10, "20.0000"))
	before := view(t, l, 2)

	mustApply(t, l, dispute(2, 10), resolve(2, 10))
	after := view(t, l, 2)

	if before != after {
		t.Errorf("resolve round trip: got %+v, want %+v", after, before)
	}

	status, _ := l.DisputeStatus(10)
	if status != ledger.StatusResolved {
		t.Errorf("tx 10 status: got %v, want Resolved", status)
	}
	if l.OpenDisputes() != 0 {
		t.Errorf("open disputes: got %d, want 0", l.OpenDisputes())
	}
}

func TestResolve_ResolvedNotReDisputable(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"), dispute(1, 1), resolve(1, 1))

	if err := l.Apply(dispute(1, 1)); !errors.Is(err, ledger.ErrAlreadyDisputed) {
		t.Fatalf("re-dispute after resolve: expected ErrAlreadyDisputed, got %v", err)
	}
	if err := l.Apply(resolve(1, 1)); !errors.Is(err, ledger.ErrNotDisputed) {
		t.Fatalf("double resolve: expected ErrNotDisputed, got %v", err)
	}
}

func TestResolve_WithoutDisputeRejected(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"))

	if err := l.Apply(resolve(1, 1)); !errors.Is(err, ledger.ErrNotDisputed) {
		t.Fatalf("expected ErrNotDisputed, got %v", err)
	}
	if err := l.Apply(resolve(1, 77)); !errors.Is(err, ledger.ErrUnknownTx) {
		t.Fatalf("expected ErrUnknownTx, got %v", err)
	}
}

// ============================================================================
// Test: Chargeback
// ============================================================================

func TestChargeback_RemovesHeldAndLocks(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(2, 10, "20.0000"), dispute(2, 10), chargeback(2, 10))

	assertBalances(t, view(t, l, 2), "0.0000", "0.0000", "0.0000", true)

	status, _ := l.DisputeStatus(10)
	if status != ledger.StatusChargedBack {
		t.Errorf("tx 10 status: got %v, want ChargedBack", status)
	}
}

func TestChargeback_LockedAccountRejectsDepositsAndWithdrawals(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(2, 10, "20.0000"), dispute(2, 10), chargeback(2, 10))

	if err := l.Apply(deposit(2, 11, "5.0000")); !errors.Is(err, ledger.ErrAccountLocked) {
		t.Fatalf("deposit on locked account: expected ErrAccountLocked, got %v", err)
	}
	if err := l.Apply(withdrawal(2, 12, "1.0000")); !errors.Is(err, ledger.ErrAccountLocked) {
		t.Fatalf("withdrawal on locked account: expected ErrAccountLocked, got %v", err)
	}

	assertBalances(t, view(t, l, 2), "0.0000", "0.0000", "0.0000", true)
}

func TestChargeback_WithoutDisputeRejected(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"))

	if err := l.Apply(chargeback(1, 1)); !errors.Is(err, ledger.ErrNotDisputed) {
		t.Fatalf("expected ErrNotDisputed, got %v", err)
	}
}

func TestChargeback_ChargedBackNotReDisputable(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"), dispute(1, 1), chargeback(1, 1))

	if err := l.Apply(dispute(1, 1)); !errors.Is(err, ledger.ErrAlreadyDisputed) {
		t.Fatalf("re-dispute after chargeback: expected ErrAlreadyDisputed, got %v", err)
	}
	if err := l.Apply(chargeback(1, 1)); !errors.Is(err, ledger.ErrNotDisputed) {
		t.Fatalf("double chargeback: expected ErrNotDisputed, got %v", err)
	}
}

func TestDisputeLifecyclePermittedOnLockedAccount(t *testing.T) {
	// A chargeback locks the account, but disputes that predate the lock can
	// still be settled: locked gates only deposits and withdrawals.
	l := ledger.New()
	mustApply(t, l,
		deposit(1, 1, "10.0000"),
		deposit(1, 2, "7.0000"),
		dispute(1, 1),
		dispute(1, 2),
		chargeback(1, 1), // locks the account, tx 2 still disputed
	)

	mustApply(t, l, resolve(1, 2))
	assertBalances(t, view(t, l, 1), "7.0000", "0.0000", "7.0000", true)
}

// ============================================================================
// Test: Snapshot ordering and invariants
// ============================================================================

func TestSnapshot_OrderedByClientAscending(t *testing.T) {
	l := ledger.New()
	mustApply(t, l,
		deposit(30, 1, "1.0000"),
		deposit(2, 2, "1.0000"),
		deposit(700, 3, "1.0000"),
		deposit(5, 4, "1.0000"),
	)

	views := l.Snapshot()
	if len(views) != 4 {
		t.Fatalf("snapshot length: got %d, want 4", len(views))
	}
	want := []record.ClientID{2, 5, 30, 700}
	for i, v := range views {
		if v.Client != want[i] {
			t.Errorf("snapshot[%d]: got client %d, want %d", i, v.Client, want[i])
		}
	}
}

func TestSnapshot_TotalAlwaysAvailablePlusHeld(t *testing.T) {
	l := ledger.New()
	mustApply(t, l,
		deposit(1, 1, "10.0000"),
		deposit(1, 2, "5.5000"),
		dispute(1, 2),
		withdrawal(1, 3, "4.2500"),
	)

	for _, v := range l.Snapshot() {
		sum, err := v.Available.Add(v.Held)
		if err != nil {
			t.Fatalf("total: %v", err)
		}
		if v.Total != sum {
			t.Errorf("client %d: total %s != available %s + held %s", v.Client, v.Total, v.Available, v.Held)
		}
		if v.Held.IsNegative() {
			t.Errorf("client %d: held is negative: %s", v.Client, v.Held)
		}
	}
}

func TestValidateBalances(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "10.0000"), dispute(1, 1))

	if err := l.ValidateHeldNonNegative(1); err != nil {
		t.Errorf("held non-negative: %v", err)
	}
	if err := l.ValidateAvailableNonNegative(1); err != nil {
		t.Errorf("available non-negative: %v", err)
	}
	if err := l.ValidateTotal(1); err != nil {
		t.Errorf("total: %v", err)
	}
}

func TestReason_StableLabels(t *testing.T) {
	l := ledger.New()
	mustApply(t, l, deposit(1, 1, "1.0000"))

	err := l.Apply(withdrawal(1, 2, "2.0000"))
	if got := ledger.Reason(err); got != "insufficient_funds" {
		t.Errorf("Reason: got %q, want %q", got, "insufficient_funds")
	}
	if got := ledger.Reason(l.Apply(dispute(1, 42))); got != "unknown_tx" {
		t.Errorf("Reason: got %q, want %q", got, "unknown_tx")
	}
}
