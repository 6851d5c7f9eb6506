package bridge

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	kit "ethinline/internal/transport"
)

type fakeChain struct {
	mu       sync.Mutex
	gas      *big.Int
	gasErr   error
	balance  *big.Int
	balErr   error
	accounts []common.Address
	gasCalls int
}

func (c *fakeChain) GasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gasCalls++
	return c.gas, c.gasErr
}

func (c *fakeChain) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = append(c.accounts, account)
	return c.balance, c.balErr
}

type answer struct {
	queryID string
	results []kit.Article
}

type fakeStream struct {
	mu        sync.Mutex
	done      chan struct{}
	err       error
	answers   []answer
	answerErr error
	answered  chan answer
}

func newFakeStream() *fakeStream {
	return &fakeStream{done: make(chan struct{}), answered: make(chan answer, 64)}
}

func (s *fakeStream) Done() <-chan struct{} { return s.done }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *fakeStream) AnswerInline(ctx context.Context, queryID string, results []kit.Article) error {
	a := answer{queryID: queryID, results: results}
	s.mu.Lock()
	s.answers = append(s.answers, a)
	err := s.answerErr
	s.mu.Unlock()
	s.answered <- a
	return err
}

func (s *fakeStream) snapshot() []answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]answer(nil), s.answers...)
}

func inline(id, text string) kit.Update {
	return kit.Update{Kind: kit.UpdateInlineQuery, Query: &kit.InlineQuery{ID: id, Text: text}}
}
