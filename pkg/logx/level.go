package logx

import (
	"strings"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
)

// ParseLevel maps a config level name to a zerolog level. Only trace,
// debug, info, warn (or warning) and error are accepted; anything else,
// including "", yields def.
func ParseLevel(s string, def Level) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl < zerolog.TraceLevel || lvl > zerolog.ErrorLevel {
		return def
	}
	return lvl
}

// ValidLevel reports whether s is empty or a name ParseLevel accepts.
func ValidLevel(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	return ParseLevel(s, zerolog.NoLevel) != zerolog.NoLevel
}
