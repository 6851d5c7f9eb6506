package adapter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	rtsup "ethinline/internal/runtime/supervisor"
	kit "ethinline/internal/transport"
	logx "ethinline/pkg/logx"
)

// Adapter is the telebot-backed transport.Adapter.
//
// Handlers run synchronously on the poll goroutine and hand updates over
// with a blocking send, so the consumer sees updates in arrival order and
// none are dropped.
type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor
	sink    atomic.Pointer[updateSink]

	fatalOnce sync.Once
	fatalCh   chan struct{}
	fatalErr  atomic.Value // error
}

var _ kit.Adapter = (*Adapter)(nil)

// updateSink is where handlers deliver updates while the adapter runs.
type updateSink struct {
	ctx context.Context
	out chan<- kit.Update
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, kit.ErrTokenMissing
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, fatalCh: make(chan struct{})}

	poller := &streamPoller{
		timeout: cfg.pollTimeout(),
		onFatal: a.fail,
		onTransient: func(err error, backoff time.Duration) {
			a.log.Warn("getUpdates failed; retrying", logx.Err(err), logx.Duration("backoff", backoff))
		},
	}
	b, err := tele.NewBot(tele.Settings{
		Token:       cfg.Token,
		Poller:      poller,
		Synchronous: true,
		Offline:     cfg.Offline,
		OnError: func(err error, c tele.Context) {
			a.log.Warn("telegram handler error", logx.Err(err))
		},
	})
	if err != nil {
		return nil, err
	}
	a.bot = b

	a.registerHandlers()
	return a, nil
}

// SetLogger swaps the logger used by handlers and the poller. Call it
// before Start.
func (a *Adapter) SetLogger(log logx.Logger) {
	if log.IsZero() {
		log = logx.Nop()
	}
	a.log = log
}

func (a *Adapter) registerHandlers() {
	a.bot.Handle(tele.OnQuery, func(c tele.Context) error {
		q := c.Query()
		if q == nil {
			return nil
		}
		a.sendUpdate(kit.Update{Kind: kit.UpdateInlineQuery, Query: inlineQueryFrom(q)})
		return nil
	})

	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil {
			return nil
		}
		a.sendUpdate(kit.Update{Kind: kit.UpdateMessage, Message: messageFrom(m)})
		return nil
	})
}

func inlineQueryFrom(q *tele.Query) *kit.InlineQuery {
	iq := &kit.InlineQuery{ID: q.ID, Text: q.Text}
	if q.Sender != nil {
		iq.FromID = q.Sender.ID
		iq.FromUsername = q.Sender.Username
	}
	return iq
}

func messageFrom(m *tele.Message) *kit.Message {
	msg := &kit.Message{ID: m.ID, Text: m.Text}
	if m.Chat != nil {
		msg.ChatID = m.Chat.ID
	}
	if m.Sender != nil {
		msg.FromID = m.Sender.ID
	}
	return msg
}

// sendUpdate blocks until the consumer takes the update or the adapter stops.
func (a *Adapter) sendUpdate(up kit.Update) {
	sk := a.sink.Load()
	if sk == nil || sk.out == nil {
		return
	}
	select {
	case sk.out <- up:
	case <-sk.ctx.Done():
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log))
	sup := a.sup
	a.sink.Store(&updateSink{ctx: sup.Context(), out: out})
	a.runMu.Unlock()

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		a.bot.Stop()
	})

	// Start returns only after Stop; anything else is a crash worth a restart.
	sup.GoRestart("telebot.poll", func(c context.Context) error {
		a.log.Info("polling started", logx.Duration("timeout", a.cfg.pollTimeout()))
		a.bot.Start()
		a.log.Info("polling stopped")
		return nil
	},
		rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		rtsup.WithStopOnCleanExit(false),
	)
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	sup := a.sup
	a.sup = nil
	wasRunning := a.running
	a.running = false
	a.sink.Store(nil)
	a.runMu.Unlock()

	if !wasRunning || sup == nil {
		return nil
	}
	a.log.Info("stopping")
	sup.Cancel()

	// Never hold shutdown hostage to a pending getUpdates long poll.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	wctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	if err := sup.Wait(wctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			a.log.Warn("telegram stop timed out", logx.Err(err))
			return nil
		}
		a.log.Debug("telegram stopped with error", logx.Err(err))
	}
	return nil
}

// Done is closed once the update stream has failed for good.
func (a *Adapter) Done() <-chan struct{} { return a.fatalCh }

func (a *Adapter) Err() error {
	err, _ := a.fatalErr.Load().(error)
	return err
}

func (a *Adapter) fail(err error) {
	a.fatalOnce.Do(func() {
		a.log.Error("update stream failed", logx.Err(err))
		a.fatalErr.Store(err)
		close(a.fatalCh)
	})
}

func (a *Adapter) AnswerInline(ctx context.Context, queryID string, results []kit.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp := &tele.QueryResponse{
		Results:   articleResults(results),
		CacheTime: a.cfg.cacheSeconds(),
	}
	return a.bot.Answer(&tele.Query{ID: queryID}, resp)
}

func articleResults(arts []kit.Article) tele.Results {
	out := make(tele.Results, 0, len(arts))
	for _, art := range arts {
		out = append(out, &tele.ArticleResult{
			ResultBase: tele.ResultBase{
				ID:        art.ID,
				ParseMode: tele.ParseMode(art.ParseMode),
				Content: &tele.InputTextMessageContent{
					Text:           art.Text,
					ParseMode:      tele.ParseMode(art.ParseMode),
					PreviewOptions: &tele.PreviewOptions{Disabled: art.DisablePreview},
				},
			},
			Title: art.Title,
		})
	}
	return out
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.MessageRef{}, err
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	msg, err := a.bot.Send(&tele.Chat{ID: to.ChatID}, text, &tele.SendOptions{
		ParseMode:             tele.ParseMode(opt.ParseMode),
		DisableWebPagePreview: opt.DisablePreview,
		ThreadID:              to.ThreadID,
	})
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}, nil
}
