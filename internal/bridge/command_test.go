package bridge

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()
	addr := "0x0000000000000000000000000000000000000000"
	tests := []struct {
		name string
		raw  string
		want Command
	}{
		{name: "empty", raw: "", want: Command{Kind: KindUsage}},
		{name: "gas", raw: "gas", want: Command{Kind: KindGasPrice, Tokens: 1}},
		{name: "balance no arg", raw: "balance", want: Command{Kind: KindBalanceMissingArg, Tokens: 1}},
		{name: "balance", raw: "balance " + addr, want: Command{Kind: KindBalance, Arg: addr, Tokens: 2}},
		{name: "balance unvalidated arg", raw: "balance xyz", want: Command{Kind: KindBalance, Arg: "xyz", Tokens: 2}},
		{name: "balance trailing space", raw: "balance ", want: Command{Kind: KindBalance, Arg: "", Tokens: 2}},
		{name: "unknown single", raw: "price", want: Command{Kind: KindUnknown, Tokens: 1}},
		{name: "case sensitive", raw: "GAS", want: Command{Kind: KindUnknown, Tokens: 1}},
		{name: "unknown pair", raw: "foo bar", want: Command{Kind: KindUnknown, Tokens: 2}},
		{name: "gas with arg", raw: "gas now", want: Command{Kind: KindUnknown, Tokens: 2}},
		{name: "three tokens", raw: "foo bar baz", want: Command{Kind: KindUnknown, Tokens: 3}},
		{name: "double space", raw: "balance  x", want: Command{Kind: KindUnknown, Tokens: 3}},
		{name: "single space", raw: " ", want: Command{Kind: KindUnknown, Tokens: 2}},
		{name: "tab is not a separator", raw: "balance\tx", want: Command{Kind: KindUnknown, Tokens: 1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Parse(tt.raw); got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDoubleSpaceIsNotBalance(t *testing.T) {
	t.Parallel()
	got := Parse("balance  x")
	if got.Kind == KindBalance && got.Arg == "x" {
		t.Fatal("double space parsed as balance of x")
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{"", "gas", "balance", "balance 0xabc", "foo bar baz", "balance  x", "  "} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		cmd := Parse(raw)
		switch cmd.Kind {
		case KindUsage, KindBalanceMissingArg, KindGasPrice, KindBalance, KindUnknown:
		default:
			t.Fatalf("Parse(%q) returned kind %d", raw, cmd.Kind)
		}
		want := 0
		if raw != "" {
			want = strings.Count(raw, " ") + 1
		}
		if cmd.Tokens != want {
			t.Fatalf("Parse(%q).Tokens = %d, want %d", raw, cmd.Tokens, want)
		}
		if cmd.Kind != KindBalance && cmd.Arg != "" {
			t.Fatalf("Parse(%q) set Arg on kind %v", raw, cmd.Kind)
		}
	})
}

func TestKindString(t *testing.T) {
	t.Parallel()
	if KindGasPrice.String() != "gas_price" || Kind(99).String() != "unknown" {
		t.Fatalf("unexpected kind names: %s %s", KindGasPrice, Kind(99))
	}
}
