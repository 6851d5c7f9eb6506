package adapter

import "time"

type Config struct {
	Token string
	// PollTimeout is the getUpdates long-poll timeout. Default 10s.
	PollTimeout time.Duration
	// CacheTime is how long Telegram may cache an inline answer.
	// Telegram applies 300s when it is zero, so the default is 1s.
	CacheTime time.Duration
	// Offline skips the getMe call in NewBot. Tests only.
	Offline bool
}

func (c Config) pollTimeout() time.Duration {
	if c.PollTimeout <= 0 {
		return 10 * time.Second
	}
	return c.PollTimeout
}

func (c Config) cacheSeconds() int {
	if c.CacheTime <= 0 {
		return 1
	}
	s := int(c.CacheTime / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
