package app

import (
	"ethinline/internal/chain"
	"ethinline/internal/config"
	"ethinline/internal/health"
	"ethinline/internal/observability/pprof"
	telegram "ethinline/internal/transport/telegram/adapter"
	logx "ethinline/pkg/logx"
)

func adapterConfig(cfg *config.Config) (telegram.Config, error) {
	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 0)
	if err != nil {
		return telegram.Config{}, err
	}
	cache, err := config.ParseDurationOrDefault("telegram.cache_time", cfg.Telegram.CacheTime, 0)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{Token: cfg.Telegram.Token, PollTimeout: poll, CacheTime: cache}, nil
}

func chainConfig(cfg *config.Config) (chain.Config, error) {
	timeout, err := config.ParseDurationField("chain.request_timeout", cfg.Chain.RequestTimeout)
	if err != nil {
		return chain.Config{}, err
	}
	return chain.Config{Endpoint: cfg.Chain.Endpoint, RequestTimeout: timeout}, nil
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     cfg.Telegram.LogChatID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func probeConfig(cfg *config.Config) health.ProbeConfig {
	// The probe reuses the RPC timeout; Validate has already parsed it.
	timeout, _ := config.ParseDurationField("chain.request_timeout", cfg.Chain.RequestTimeout)
	return health.ProbeConfig{
		Enabled:  cfg.Probe.Enabled,
		Schedule: cfg.Probe.Schedule,
		Timeout:  timeout,
	}
}

func pprofConfig(cfg *config.Config) pprof.Config {
	return pprof.Config{Enabled: cfg.Pprof.Enabled, Addr: cfg.Pprof.Addr}
}

// validateLive checks the parts of cfg that are applied on hot reload.
func validateLive(cfg *config.Config) error {
	if cfg.Probe.Enabled {
		if _, err := health.ParseSchedule(cfg.Probe.Schedule); err != nil {
			return err
		}
	}
	if _, err := adapterConfig(cfg); err != nil {
		return err
	}
	_, err := chainConfig(cfg)
	return err
}
