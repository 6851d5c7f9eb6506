package config

import (
	"errors"
	"fmt"
	"strings"

	logx "ethinline/pkg/logx"
)

var ErrMissingToken = errors.New("telegram token is not set (TELEGRAM_BOT_TOKEN)")

// Validate checks the fields every component relies on. Component-specific
// checks (e.g. the probe schedule) are installed with Manager.SetValidator.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(cfg.Chain.Endpoint) == "" {
		return errors.New("chain.endpoint is empty")
	}
	for path, raw := range map[string]string{
		"telegram.poll_timeout": cfg.Telegram.PollTimeout,
		"telegram.cache_time":   cfg.Telegram.CacheTime,
		"chain.request_timeout": cfg.Chain.RequestTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	if !logx.ValidLevel(cfg.Logging.Telegram.MinLevel) {
		return fmt.Errorf("logging.telegram.min_level: unknown level %q", cfg.Logging.Telegram.MinLevel)
	}
	if cfg.Logging.Telegram.RatePerSec < 0 {
		return errors.New("logging.telegram.rate_per_sec must be >= 0")
	}
	if cfg.Logging.Telegram.Enabled && cfg.Telegram.LogChatID == 0 {
		return errors.New("logging.telegram.enabled requires telegram.log_chat_id")
	}
	if cfg.Probe.Enabled && strings.TrimSpace(cfg.Probe.Schedule) == "" {
		return errors.New("probe.schedule is empty")
	}
	return nil
}
