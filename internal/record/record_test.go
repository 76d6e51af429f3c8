package record_test

import (
	"testing"

	"PayEngine/internal/record"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind record.Kind
		want string
	}{
		{record.KindDeposit, "deposit"},
		{record.KindWithdrawal, "withdrawal"},
		{record.KindDispute, "dispute"},
		{record.KindResolve, "resolve"},
		{record.KindChargeback, "chargeback"},
		{record.KindUnknown, "unknown"},
		{record.Kind(99), "unknown"},
	}

	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("Kind(%d).String(): got %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestKindFromString_RoundTrip(t *testing.T) {
	for _, k := range []record.Kind{
		record.KindDeposit,
		record.KindWithdrawal,
		record.KindDispute,
		record.KindResolve,
		record.KindChargeback,
	} {
		if got := record.KindFromString(k.String()); got != k {
			t.Errorf("KindFromString(%q): got %v, want %v", k.String(), got, k)
		}
	}
}

func TestKindFromString_Unknown(t *testing.T) {
	for _, s := range []string{"", "Deposit", "transfer", "withdrawl"} {
		if got := record.KindFromString(s); got != record.KindUnknown {
			t.Errorf("KindFromString(%q): got %v, want KindUnknown", s, got)
		}
	}
}

func TestHasAmount(t *testing.T) {
	withAmount := map[record.Kind]bool{
		record.KindDeposit:    true,
		record.KindWithdrawal: true,
		record.KindDispute:    false,
		record.KindResolve:    false,
		record.KindChargeback: false,
	}

	for kind, want := range withAmount {
		r := record.Record{Kind: kind}
		if r.HasAmount() != want {
			t.Errorf("%s: HasAmount() = %v, want %v", kind, r.HasAmount(), want)
		}
		if r.Disputable() != want {
			t.Errorf("%s: Disputable() = %v, want %v", kind, r.Disputable(), want)
		}
	}
}
