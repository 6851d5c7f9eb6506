package bridge

import "strings"

type Kind int

const (
	KindUnknown Kind = iota
	KindUsage
	KindBalanceMissingArg
	KindGasPrice
	KindBalance
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindBalanceMissingArg:
		return "balance_missing_arg"
	case KindGasPrice:
		return "gas_price"
	case KindBalance:
		return "balance"
	default:
		return "unknown"
	}
}

const (
	verbBalance = "balance"
	verbGas     = "gas"
)

// Command is the parsed form of an inline query.
type Command struct {
	Kind Kind
	// Arg is the unvalidated address for KindBalance.
	Arg string
	// Tokens is the number of tokens the query split into.
	Tokens int
}

// Parse maps raw query text to a Command. It never fails.
//
// Tokens are separated by single ASCII spaces with no trimming, so "gas " is
// two tokens and "balance  x" is three.
func Parse(raw string) Command {
	tokens := splitQuery(raw)
	cmd := Command{Kind: KindUnknown, Tokens: len(tokens)}
	switch len(tokens) {
	case 0:
		cmd.Kind = KindUsage
	case 1:
		switch tokens[0] {
		case verbBalance:
			cmd.Kind = KindBalanceMissingArg
		case verbGas:
			cmd.Kind = KindGasPrice
		}
	case 2:
		if tokens[0] == verbBalance {
			cmd.Kind = KindBalance
			cmd.Arg = tokens[1]
		}
	}
	return cmd
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, " ")
}
