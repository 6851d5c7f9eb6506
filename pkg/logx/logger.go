package logx

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger is a value type; copies are cheap and With never mutates the
// receiver. A Logger from Service.Logger follows Service.Apply. The zero
// value discards everything.
type Logger struct {
	svc    *Service
	base   *zerolog.Logger
	fields []Field
}

var nopLogger = zerolog.Nop()

func Nop() Logger { return Logger{base: &nopLogger} }

// NewConsole returns a human-readable stdout logger for use before the
// configured Service exists.
func NewConsole(level string) Logger {
	return standalone(newConsoleWriter(os.Stdout), level)
}

// NewWriter returns a logger writing JSON lines to w.
func NewWriter(w io.Writer, level string) Logger {
	return standalone(w, level)
}

func standalone(w io.Writer, level string) Logger {
	initGlobals()
	zl := zerolog.New(w).Level(ParseLevel(level, zerolog.InfoLevel)).With().Timestamp().Logger()
	return Logger{base: &zl}
}

func (l Logger) IsZero() bool { return l.svc == nil && l.base == nil && l.fields == nil }

func (l Logger) zl() zerolog.Logger {
	switch {
	case l.svc != nil:
		return l.svc.current()
	case l.base != nil:
		return *l.base
	}
	return nopLogger
}

func (l Logger) Enabled(level Level) bool { return level >= l.zl().GetLevel() }

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	l.fields = append(append(merged, l.fields...), fields...)
	return l
}

func (l Logger) Trace(msg string, fields ...Field) { l.write(zerolog.TraceLevel, msg, fields) }
func (l Logger) Debug(msg string, fields ...Field) { l.write(zerolog.DebugLevel, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.write(zerolog.InfoLevel, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.write(zerolog.WarnLevel, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.write(zerolog.ErrorLevel, msg, fields) }

// write must be called directly from the level methods; the caller lookup
// depends on that frame depth.
func (l Logger) write(level zerolog.Level, msg string, fields []Field) {
	zl := l.zl()
	e := zl.WithLevel(level)
	if e == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.Str(zerolog.CallerFieldName, filepath.Base(file)+":"+strconv.Itoa(line))
	}
	for _, set := range [][]Field{l.fields, fields} {
		for _, f := range set {
			if f != nil {
				f(e)
			}
		}
	}
	e.Msg(msg)
}

var globals sync.Once

func initGlobals() {
	globals.Do(func() {
		zerolog.TimeFieldFormat = timeFormat
		zerolog.ErrorFieldName = "err"
	})
}

func newConsoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:          w,
		TimeFormat:   timeFormat,
		FormatCaller: func(i any) string { s, _ := i.(string); return s },
	}
}
