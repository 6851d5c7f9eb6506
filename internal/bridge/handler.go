package bridge

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	logx "ethinline/pkg/logx"
)

// Chain is the blockchain side of the bridge.
type Chain interface {
	GasPrice(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}

var errEmptyResult = errors.New("empty rpc result")

type Handler struct {
	chain Chain
	log   logx.Logger
}

func NewHandler(chain Chain, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{chain: chain, log: log}
}

// Handle runs cmd and returns the reply to show, if any.
//
// Failure policy differs per command and is kept as is:
// a failed gas lookup and a two-token unknown command produce an error
// reply, while a bad address, a failed balance lookup and a one-token
// unknown command produce nothing.
func (h *Handler) Handle(ctx context.Context, cmd Command) (Reply, bool) {
	switch cmd.Kind {
	case KindUsage:
		return usageReply, true

	case KindBalanceMissingArg:
		return accountNeededReply, true

	case KindGasPrice:
		v, err := h.chain.GasPrice(ctx)
		if err == nil && v == nil {
			err = errEmptyResult
		}
		if err != nil {
			h.log.Warn("gas price lookup failed", logx.Err(err))
			return gasFailedReply, true
		}
		return gasPriceReply(v), true

	case KindBalance:
		account, ok := parseAddress(cmd.Arg)
		if !ok {
			h.log.Debug("balance query with invalid address", logx.String("addr", cmd.Arg))
			return Reply{}, false
		}
		v, err := h.chain.BalanceOf(ctx, account)
		if err == nil && v == nil {
			err = errEmptyResult
		}
		if err != nil {
			h.log.Warn("balance lookup failed", logx.String("addr", cmd.Arg), logx.Err(err))
			return Reply{}, false
		}
		return balanceReply(cmd.Arg, v), true

	default:
		if cmd.Tokens == 2 {
			return unknownCommandReply, true
		}
		return Reply{}, false
	}
}

// parseAddress accepts 40 hex digits with an optional 0x prefix.
func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
