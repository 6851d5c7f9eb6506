package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("WEB3_ENDPOINT", "")
	t.Setenv("BOT_LOG_LEVEL", "")
}

func TestLoadJSONOverDefaults(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.json", `{
		"telegram": {"token": "123:abc", "cache_time": "3s"},
		"logging": {"level": "debug", "console": false}
	}`)

	cfg, err := NewManager(p).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.CacheTime != "3s" {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Telegram.PollTimeout != "10s" {
		t.Fatalf("poll_timeout default lost: %q", cfg.Telegram.PollTimeout)
	}
	if cfg.Chain.Endpoint != DefaultChainEndpoint {
		t.Fatalf("endpoint = %q", cfg.Chain.Endpoint)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Console {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if !cfg.Probe.Enabled || cfg.Probe.Schedule != "@every 5m" {
		t.Fatalf("probe = %+v", cfg.Probe)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.yaml", `
telegram:
  token: "123:abc"
  log_chat_id: -100200
chain:
  endpoint: http://localhost:8545
  request_timeout: 2s
logging:
  level: warn
  telegram:
    enabled: true
    min_level: error
    rate_per_sec: 2
probe:
  enabled: false
`)
	cfg, err := NewManager(p).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.LogChatID != -100200 {
		t.Fatalf("log_chat_id = %d", cfg.Telegram.LogChatID)
	}
	if cfg.Chain.Endpoint != "http://localhost:8545" || cfg.Chain.RequestTimeout != "2s" {
		t.Fatalf("chain = %+v", cfg.Chain)
	}
	if !cfg.Logging.Telegram.Enabled || cfg.Logging.Telegram.RatePerSec != 2 {
		t.Fatalf("logging.telegram = %+v", cfg.Logging.Telegram)
	}
	if cfg.Probe.Enabled {
		t.Fatalf("probe should be disabled")
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	clearEnv(t)
	cases := []struct {
		name, file, body, want string
	}{
		{"unknown field", "c.json", `{"telegram":{"token":"t","bogus":1}}`, "bogus"},
		{"trailing data", "c.json", `{"telegram":{"token":"t"}} {}`, "trailing"},
		{"bad duration", "c.json", `{"telegram":{"token":"t","poll_timeout":"soon"}}`, "telegram.poll_timeout"},
		{"negative duration", "c.json", `{"telegram":{"token":"t"},"chain":{"request_timeout":"-1s"}}`, "chain.request_timeout"},
		{"bad level", "c.yaml", "telegram: {token: t}\nlogging: {level: loud}\n", "logging.level"},
		{"sink without chat", "c.yaml", "telegram: {token: t}\nlogging: {telegram: {enabled: true}}\n", "log_chat_id"},
		{"bad yaml", "c.yml", "telegram: [", "yaml"},
	}
	for _, tc := range cases {
		p := writeFile(t, tc.file, tc.body)
		_, err := NewManager(p).Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err = %v, want containing %q", tc.name, err, tc.want)
		}
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("WEB3_ENDPOINT", "http://node:8545")
	t.Setenv("BOT_LOG_LEVEL", "trace")
	p := writeFile(t, "config.json", `{"telegram":{"token":"file-token"},"chain":{"endpoint":"http://file"}}`)

	cfg, err := NewManager(p).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" || cfg.Chain.Endpoint != "http://node:8545" || cfg.Logging.Level != "trace" {
		t.Fatalf("env not applied: %+v %+v %q", cfg.Telegram, cfg.Chain, cfg.Logging.Level)
	}
}

func TestEnvOnlyWithoutFile(t *testing.T) {
	clearEnv(t)
	m := NewManager("")
	if _, err := m.Load(context.Background()); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "t")
	cfg, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatalf("Get did not return committed config")
	}
	if cfg.Chain.Endpoint != DefaultChainEndpoint {
		t.Fatalf("endpoint = %q", cfg.Chain.Endpoint)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env: %v", err)
	}
	t.Setenv("WEB3_ENDPOINT", "http://already-set")
	t.Setenv("BOT_LOG_LEVEL", "x")
	if err := os.Unsetenv("BOT_LOG_LEVEL"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	p := writeFile(t, ".env", "TELEGRAM_BOT_TOKEN=from-dotenv\nWEB3_ENDPOINT=http://dotenv\nBOT_LOG_LEVEL=debug\n")
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	e, err := ReadEnv()
	if err != nil {
		t.Fatalf("ReadEnv: %v", err)
	}
	// TELEGRAM_BOT_TOKEN is exported but empty, which counts as unset.
	if e.TelegramToken != "from-dotenv" {
		t.Fatalf("token = %q", e.TelegramToken)
	}
	if e.LogLevel != "debug" {
		t.Fatalf("log level from unset variable = %q", e.LogLevel)
	}
	if e.Web3Endpoint != "http://already-set" {
		t.Fatalf(".env overrode the environment: %q", e.Web3Endpoint)
	}
}

func TestValidatorRejects(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "t")
	m := NewManager("")
	sentinel := errors.New("nope")
	m.SetValidator(func(context.Context, *Config) error { return sentinel })
	if _, err := m.Load(context.Background()); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}
	if m.Get() != nil {
		t.Fatalf("rejected config was committed")
	}
}

func TestSubscribeKeepsLatest(t *testing.T) {
	t.Parallel()
	m := NewManager("")
	ch := m.Subscribe(1)
	a, b := Default(), Default()
	b.Logging.Level = "debug"
	m.publish(a)
	m.publish(b)
	if got := <-ch; got != b {
		t.Fatalf("subscriber got stale config")
	}
	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed after Unsubscribe")
	}
	m.publish(a) // no subscribers left
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "config.json", `{"telegram":{"token":"t"},"logging":{"level":"info","console":true}}`)
	m := NewManager(p)
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	body := []byte(`{"telegram":{"token":"t"},"logging":{"level":"debug","console":true}}`)
	for {
		// Rewrite until the watcher has had time to register the directory.
		if err := os.WriteFile(p, body, 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		select {
		case cfg := <-ch:
			if cfg.Logging.Level != "debug" {
				t.Fatalf("level = %q", cfg.Logging.Level)
			}
			return
		case <-tick.C:
		case <-deadline:
			t.Fatalf("no reload published")
		}
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	a := Default()
	a.Telegram.Token = "old"
	b := *a
	b.Logging.Level = "debug"
	b.Probe.Schedule = "@every 1m"

	changed, fields := SummarizeChange(a, &b)
	if strings.Join(changed, ",") != "logging,probe" {
		t.Fatalf("changed = %v", changed)
	}
	if len(fields) != 5 {
		t.Fatalf("fields = %d", len(fields))
	}
	if RestartRequired(a, &b) {
		t.Fatalf("logging/probe change should apply live")
	}

	c := b
	c.Telegram.Token = "new"
	if !RestartRequired(&b, &c) {
		t.Fatalf("token change needs restart")
	}
	if changed, _ := SummarizeChange(&b, &c); strings.Join(changed, ",") != "telegram" {
		t.Fatalf("changed = %v", changed)
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		want time.Duration
		err  bool
	}{
		{"", 7 * time.Second, false},
		{"0s", 7 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{" 2m ", 2 * time.Minute, false},
		{"-1s", 0, true},
		{"x", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDurationOrDefault("f", tc.raw, 7*time.Second)
		if (err != nil) != tc.err || got != tc.want {
			t.Fatalf("%q: got %v, %v", tc.raw, got, err)
		}
	}
}
