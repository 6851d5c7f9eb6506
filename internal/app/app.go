package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ethinline/internal/bridge"
	"ethinline/internal/chain"
	"ethinline/internal/config"
	"ethinline/internal/health"
	"ethinline/internal/observability/pprof"
	rtsup "ethinline/internal/runtime/supervisor"
	kit "ethinline/internal/transport"
	telegram "ethinline/internal/transport/telegram/adapter"
	logx "ethinline/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter *telegram.Adapter
	chain   *chain.Client
	loop    *bridge.Loop

	probe  *health.Probe
	notify *health.Notifier
	pprof  *pprof.Service

	updates chan kit.Update
}

// New loads the configuration (optional .env, optional file, environment)
// and builds every component. Nothing runs until Run.
func New(ctx context.Context, cfgPath string) (*App, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error { return validateLive(cfg) })
	cfg, err := cfgm.Load(ctx)
	if err != nil {
		return nil, err
	}

	adCfg, err := adapterConfig(cfg)
	if err != nil {
		return nil, err
	}
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(adCfg, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg), ad)
	ad.SetLogger(log.With(logx.String("comp", "telegram")))

	chCfg, err := chainConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	client, err := chain.Dial(ctx, chCfg, log.With(logx.String("comp", "chain")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	handler := bridge.NewHandler(client, log.With(logx.String("comp", "bridge")))
	loop := bridge.NewLoop(ad, handler, log.With(logx.String("comp", "loop")))

	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	return &App{
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		adapter: ad,
		chain:   client,
		loop:    loop,
		probe:   health.NewProbe(client, log),
		notify:  health.NewNotifier(log),
		pprof:   pprof.New(log),
		updates: make(chan kit.Update, 64),
	}, nil
}

// Run starts the adapter and side services, then blocks in the update loop.
// It returns nil when ctx is cancelled and the loop error otherwise (a
// failed inbound stream, a closed update channel or a fatal component
// error). Everything is stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		a.sup.Cancel()
		a.shutdown(StopFatalError)
		return err
	}

	cfg := a.cfgm.Get()
	if err := a.probe.Apply(probeConfig(cfg)); err != nil {
		a.log.Warn("probe not started", logx.Err(err))
	}
	if err := a.pprof.Apply(a.sup.Context(), pprofConfig(cfg)); err != nil {
		a.log.Warn("pprof not started", logx.Err(err))
	}

	a.sup.Go0("sdnotify.watchdog", func(c context.Context) { _ = a.notify.Watchdog(c) })
	a.sup.Go0("config.reload", a.reloadLoop)
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.notify.Ready()
	a.log.Info("bridge started", logx.String("config", a.cfgm.Path()))

	err := a.loop.Run(a.sup.Context(), a.updates)
	reason := StopFatalError
	switch {
	case ctx.Err() != nil:
		err, reason = nil, StopSignal
	case errors.Is(err, context.Canceled):
		// a supervised goroutine failed and cancelled the run context
		if serr := a.sup.Err(); serr != nil {
			err = serr
		}
	default:
		reason = StopStreamFailed
	}
	a.shutdown(reason)
	return err
}

// reloadLoop applies hot-reloaded config: logging, probe and pprof change
// live; telegram and chain settings need a restart.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(sub)

	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			sections, fields := config.SummarizeChange(last, next)
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			if config.RestartRequired(last, next) {
				a.log.Warn("telegram/chain config changed; restart required for changes to take effect")
			}
			a.logs.Apply(logConfig(next))
			if err := a.probe.Apply(probeConfig(next)); err != nil {
				a.log.Warn("invalid probe config; keeping previous", logx.Err(err))
			}
			if err := a.pprof.Apply(ctx, pprofConfig(next)); err != nil {
				a.log.Warn("pprof reconfigure failed", logx.Err(err))
			}
			last = next
			a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, fields...)...)
		}
	}
}

func (a *App) shutdown(reason StopReason) {
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notify.Stopping()
	a.sup.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	a.step(ctx, "probe", time.Second, func(context.Context) error { a.probe.Stop(); return nil })
	a.step(ctx, "pprof", time.Second, func(c context.Context) error { a.pprof.Stop(c); return nil })
	a.step(ctx, "adapter", 2*time.Second, a.adapter.Stop)
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Wait)
	a.chain.Close()

	st := a.loop.Stats()
	a.log.Info("stopped",
		logx.Uint64("queries", st.Queries),
		logx.Uint64("answered", st.Answered),
		logx.Uint64("silent", st.Silent),
		logx.Uint64("ignored", st.Ignored),
		logx.Uint64("failed", st.Failed),
	)
	_ = a.logs.Close()
}

// step runs one shutdown step with an upper bound so one component cannot
// stall the whole stop. fn must honor its context.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
	}
}
