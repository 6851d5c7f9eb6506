package bridge

import (
	"fmt"
	"math/big"
)

// Reply is one answer candidate for an inline query.
type Reply struct {
	ID    string
	Title string
	Body  string
}

var (
	usageReply = Reply{
		ID:    "usage",
		Title: "Command usage",
		Body:  "Use `gas` or `balance <eth address>`",
	}
	accountNeededReply = Reply{
		ID:    "Account needed",
		Title: "Account needed",
		Body:  "Enter your account to query. Usage: `balance <account>`",
	}
	gasFailedReply = Reply{
		ID:    "fail",
		Title: "Failed to fetch gas price",
		Body:  "Failed to fetch gas price",
	}
	unknownCommandReply = Reply{
		ID:    "fail cmd",
		Title: "Failed to run your command",
		Body:  "Cannot run your command",
	}
)

func gasPriceReply(v *big.Int) Reply {
	return Reply{
		ID:    "gas price",
		Title: fmt.Sprintf("Gas Price is %s", v.String()),
		Body:  fmt.Sprintf("Current gas price of ethereum is %s", v.String()),
	}
}

func balanceReply(addr string, v *big.Int) Reply {
	text := fmt.Sprintf("Balance of account %s is %s", addr, v.String())
	return Reply{ID: "balance " + addr, Title: text, Body: text}
}
