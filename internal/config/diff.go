package config

import (
	"strings"

	logx "ethinline/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// log fields describing the new values. Tokens and endpoint URLs (which may
// embed API keys) are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		fields  []logx.Field
	)

	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
		fields = append(fields,
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.String("telegram.poll_timeout", newCfg.Telegram.PollTimeout),
			logx.String("telegram.cache_time", newCfg.Telegram.CacheTime),
		)
	}
	if oldCfg.Chain != newCfg.Chain {
		changed = append(changed, "chain")
		fields = append(fields,
			logx.Bool("chain.endpoint_changed", strings.TrimSpace(oldCfg.Chain.Endpoint) != strings.TrimSpace(newCfg.Chain.Endpoint)),
			logx.String("chain.request_timeout", newCfg.Chain.RequestTimeout),
		)
	}
	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		fields = append(fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
		)
	}
	if oldCfg.Probe != newCfg.Probe {
		changed = append(changed, "probe")
		fields = append(fields,
			logx.Bool("probe.enabled", newCfg.Probe.Enabled),
			logx.String("probe.schedule", newCfg.Probe.Schedule),
		)
	}
	if oldCfg.Pprof != newCfg.Pprof {
		changed = append(changed, "pprof")
		fields = append(fields,
			logx.Bool("pprof.enabled", newCfg.Pprof.Enabled),
			logx.String("pprof.addr", newCfg.Pprof.Addr),
		)
	}
	return changed, fields
}

// RestartRequired reports whether the change touches settings that are only
// read at startup.
func RestartRequired(oldCfg, newCfg *Config) bool {
	if oldCfg == nil || newCfg == nil {
		return false
	}
	return oldCfg.Telegram != newCfg.Telegram || oldCfg.Chain != newCfg.Chain
}
