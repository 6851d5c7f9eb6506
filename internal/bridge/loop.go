package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	kit "ethinline/internal/transport"
	logx "ethinline/pkg/logx"
)

// ErrStreamClosed is returned by Run when the update channel is closed
// without the adapter reporting a cause.
var ErrStreamClosed = errors.New("update stream closed")

// Stream is what the loop needs from the chat-platform adapter.
type Stream interface {
	Done() <-chan struct{}
	Err() error
	AnswerInline(ctx context.Context, queryID string, results []kit.Article) error
}

// LoopStats are best-effort counters for shutdown and debug logs.
type LoopStats struct {
	Queries  uint64
	Answered uint64
	Silent   uint64
	Ignored  uint64
	Failed   uint64
}

type Loop struct {
	stream  Stream
	handler *Handler
	log     logx.Logger

	queries  uint64
	answered uint64
	silent   uint64
	ignored  uint64
	failed   uint64
}

func NewLoop(stream Stream, handler *Handler, log logx.Logger) *Loop {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Loop{stream: stream, handler: handler, log: log}
}

// Run consumes updates one at a time until the stream fails, the channel is
// closed or ctx ends. It never returns nil.
func (l *Loop) Run(ctx context.Context, updates <-chan kit.Update) error {
	l.log.Info("update loop listening")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stream.Done():
			if err := l.stream.Err(); err != nil {
				return err
			}
			return ErrStreamClosed
		case up, ok := <-updates:
			if !ok {
				return ErrStreamClosed
			}
			l.dispatch(ctx, up)
		}
	}
}

func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Queries:  atomic.LoadUint64(&l.queries),
		Answered: atomic.LoadUint64(&l.answered),
		Silent:   atomic.LoadUint64(&l.silent),
		Ignored:  atomic.LoadUint64(&l.ignored),
		Failed:   atomic.LoadUint64(&l.failed),
	}
}

func (l *Loop) dispatch(ctx context.Context, up kit.Update) {
	if up.Kind != kit.UpdateInlineQuery || up.Query == nil {
		atomic.AddUint64(&l.ignored, 1)
		l.log.Trace("update ignored", logx.String("kind", string(up.Kind)))
		return
	}
	atomic.AddUint64(&l.queries, 1)
	q := up.Query
	log := l.log.With(logx.String("query_id", q.ID), logx.Int64("from", q.FromID))

	start := time.Now()
	cmd := Parse(q.Text)
	reply, ok, err := l.handle(ctx, cmd)
	if err != nil {
		atomic.AddUint64(&l.failed, 1)
		log.Error("handler panicked", logx.Stringer("cmd", cmd.Kind), logx.Err(err))
		return
	}
	if !ok {
		atomic.AddUint64(&l.silent, 1)
		log.Debug("query left unanswered", logx.Stringer("cmd", cmd.Kind), logx.Int("tokens", cmd.Tokens))
		return
	}

	if err := l.stream.AnswerInline(ctx, q.ID, []kit.Article{Format(reply)}); err != nil {
		atomic.AddUint64(&l.failed, 1)
		log.Warn("answer inline query failed", logx.Stringer("cmd", cmd.Kind), logx.Err(err))
		return
	}
	atomic.AddUint64(&l.answered, 1)
	log.Debug("query answered",
		logx.Stringer("cmd", cmd.Kind),
		logx.String("result_id", reply.ID),
		logx.Duration("took", time.Since(start)),
	)
}

// handle keeps a panicking handler from taking the loop down with it.
func (l *Loop) handle(ctx context.Context, cmd Command) (reply Reply, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	reply, ok = l.handler.Handle(ctx, cmd)
	return reply, ok, nil
}
