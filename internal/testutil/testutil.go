package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"PayEngine/internal/money"
	"PayEngine/internal/record"
)

// Deposit builds a deposit record for tests.
func Deposit(client record.ClientID, tx record.TxID, amount string) record.Record {
	return record.Record{
		Kind:   record.KindDeposit,
		Client: client,
		Tx:     tx,
		Amount: money.MustParse(amount),
	}
}

// Withdrawal builds a withdrawal record for tests.
func Withdrawal(client record.ClientID, tx record.TxID, amount string) record.Record {
	return record.Record{
		Kind:   record.KindWithdrawal,
		Client: client,
		Tx:     tx,
		Amount: money.MustParse(amount),
	}
}

// Dispute builds a dispute record for tests.
func Dispute(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindDispute, Client: client, Tx: tx}
}

// Resolve builds a resolve record for tests.
func Resolve(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindResolve, Client: client, Tx: tx}
}

// Chargeback builds a chargeback record for tests.
func Chargeback(client record.ClientID, tx record.TxID) record.Record {
	return record.Record{Kind: record.KindChargeback, Client: client, Tx: tx}
}

// GoldenFile reads a golden file from testdata/ and returns its contents.
func GoldenFile(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}
	return data
}

// UpdateGoldenFile writes data to a golden file.
// Only used when UPDATE_GOLDEN=1 is set.
func UpdateGoldenFile(t *testing.T, name string, data []byte) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") != "1" {
		return
	}
	path := filepath.Join("testdata", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create testdata dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden file %s: %v", path, err)
	}
	t.Logf("updated golden file: %s", path)
}

// AssertGolden compares data against a golden file.
// If UPDATE_GOLDEN=1, updates the golden file instead.
func AssertGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") == "1" {
		UpdateGoldenFile(t, name, got)
		return
	}

	want := GoldenFile(t, name)
	if string(got) != string(want) {
		t.Errorf("golden file mismatch for %s:\n--- want ---\n%s\n--- got ---\n%s",
			name, string(want), string(got))
	}
}
