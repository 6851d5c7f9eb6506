package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "ethinline/pkg/logx"
)

// HeadReader returns the latest block height of the chain endpoint.
type HeadReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type ProbeConfig struct {
	Enabled  bool
	Schedule string
	// Timeout bounds one probe. Zero means defaultProbeTimeout.
	Timeout time.Duration
}

const defaultProbeTimeout = 10 * time.Second

// Status is the outcome of the most recent probe.
type Status struct {
	Height   uint64
	Latency  time.Duration
	At       time.Time
	Err      error
	Runs     uint64
	Failures uint64
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts cron expressions (5 or 6 fields), descriptors such
// as "@hourly" or "@every 5m", and bare Go durations ("90s").
func ParseSchedule(raw string) (cron.Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("schedule required")
	}
	if !strings.ContainsAny(s, " \t") && !strings.HasPrefix(s, "@") {
		if d, err := time.ParseDuration(s); err == nil {
			if d <= 0 {
				return nil, fmt.Errorf("interval must be > 0")
			}
			return cron.Every(d), nil
		}
	}
	sched, err := parser.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q (use cron like '*/5 * * * *', '@every 5m' or a duration like '5m'): %w", raw, err)
	}
	return sched, nil
}

// Probe periodically asks the chain endpoint for its head block. Results are
// only logged and kept for Last; query handling never depends on them.
type Probe struct {
	head HeadReader
	log  logx.Logger

	mu       sync.Mutex
	c        *cron.Cron
	schedule string
	timeout  time.Duration

	stMu sync.Mutex
	st   Status
}

func NewProbe(head HeadReader, log logx.Logger) *Probe {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Probe{head: head, log: log.With(logx.String("comp", "probe")), timeout: defaultProbeTimeout}
}

// Apply starts, stops or reschedules the probe. An invalid schedule leaves
// the running probe untouched.
func (p *Probe) Apply(cfg ProbeConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Timeout > 0 {
		p.timeout = cfg.Timeout
	} else {
		p.timeout = defaultProbeTimeout
	}
	if !cfg.Enabled {
		if p.c != nil {
			p.stopLocked()
			p.log.Info("probe disabled")
		}
		return nil
	}
	spec := strings.TrimSpace(cfg.Schedule)
	if p.c != nil && spec == p.schedule {
		return nil
	}
	sched, err := ParseSchedule(spec)
	if err != nil {
		return err
	}
	p.stopLocked()

	cl := cronLogger{log: p.log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(sched, cron.FuncJob(func() { p.Check(context.Background()) }))
	c.Start()
	p.c = c
	p.schedule = spec
	p.log.Info("probe scheduled", logx.String("schedule", spec))
	return nil
}

// Check runs one probe now and records the result.
func (p *Probe) Check(ctx context.Context) Status {
	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	height, err := p.head.BlockNumber(cctx)
	lat := time.Since(start)

	p.stMu.Lock()
	p.st.Runs++
	if err != nil {
		p.st.Failures++
	}
	p.st.Height, p.st.Latency, p.st.At, p.st.Err = height, lat, start, err
	st := p.st
	p.stMu.Unlock()

	if err != nil {
		p.log.Warn("chain endpoint probe failed", logx.Duration("latency", lat), logx.Err(err))
	} else {
		p.log.Info("chain endpoint ok", logx.Uint64("height", height), logx.Duration("latency", lat))
	}
	return st
}

func (p *Probe) Last() Status {
	p.stMu.Lock()
	defer p.stMu.Unlock()
	return p.st
}

// Stop cancels the schedule and waits for a running probe to finish.
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Probe) stopLocked() {
	if p.c == nil {
		return
	}
	<-p.c.Stop().Done()
	p.c = nil
	p.schedule = ""
}

// cronLogger routes cron's internal messages into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Warn("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
