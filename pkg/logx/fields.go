package logx

import (
	"math/big"
	"time"

	"github.com/rs/zerolog"
)

// Field adds one key to a log event. Fields apply in order, so with
// duplicate keys the later one is what a JSON reader sees.
type Field func(e *zerolog.Event)

func String(k, v string) Field      { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field     { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field { return func(e *zerolog.Event) { e.Int64(k, v) } }
func Uint64(k string, v uint64) Field {
	return func(e *zerolog.Event) { e.Uint64(k, v) }
}
func Bool(k string, v bool) Field { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Any(k string, v any) Field { return func(e *zerolog.Event) { e.Interface(k, v) } }

// Big logs an arbitrary precision integer (wei amounts) as a decimal
// string. nil is logged as null.
func Big(k string, v *big.Int) Field {
	return func(e *zerolog.Event) {
		if v == nil {
			e.Interface(k, nil)
			return
		}
		e.Str(k, v.String())
	}
}

// Stringer calls v.String() only when the event is written.
func Stringer(k string, v interface{ String() string }) Field {
	return func(e *zerolog.Event) {
		if v != nil {
			e.Str(k, v.String())
		}
	}
}

// Err is a no-op for a nil error.
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}
