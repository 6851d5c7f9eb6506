package config

// DefaultChainEndpoint is the public JSON-RPC endpoint used when neither the
// config file nor WEB3_ENDPOINT names one.
const DefaultChainEndpoint = "https://cloudflare-eth.com"

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Chain    ChainConfig    `json:"chain"`
	Logging  LoggingConfig  `json:"logging"`
	Probe    ProbeConfig    `json:"probe"`
	Pprof    PprofConfig    `json:"pprof,omitempty"`
}

type TelegramConfig struct {
	// Token is normally supplied through TELEGRAM_BOT_TOKEN.
	Token string `json:"token,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// CacheTime is how long Telegram may cache an inline answer ("1s").
	CacheTime string `json:"cache_time,omitempty"`
	// LogChatID receives warnings when logging.telegram.enabled is set.
	LogChatID int64 `json:"log_chat_id,omitempty"`
}

type ChainConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	// RequestTimeout bounds each RPC call. "0s" disables it.
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// ProbeConfig controls the periodic endpoint health probe.
//
// Schedule accepts cron specs (5 or 6 fields) and descriptors such as
// "@every 5m".
type ProbeConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// PprofConfig controls the optional pprof HTTP server. Keep it on loopback.
type PprofConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
}

// Default returns the configuration used for fields a file leaves out.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{PollTimeout: "10s", CacheTime: "1s"},
		Chain:    ChainConfig{Endpoint: DefaultChainEndpoint, RequestTimeout: "15s"},
		Logging: LoggingConfig{
			Level:    "info",
			Console:  true,
			Telegram: LoggingTelegram{MinLevel: "warn", RatePerSec: 1},
		},
		Probe: ProbeConfig{Enabled: true, Schedule: "@every 5m"},
		Pprof: PprofConfig{Addr: "127.0.0.1:6060"},
	}
}
