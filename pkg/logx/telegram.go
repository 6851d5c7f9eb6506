package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	kit "ethinline/internal/transport"
)

const telegramMaxLen = 3500

func (s *Service) telegramWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.tgQueue:
			s.mu.Lock()
			chatID := s.chatID
			s.mu.Unlock()
			if chatID == 0 {
				continue
			}
			_, _ = s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, msg, &kit.SendOptions{DisablePreview: true})
		}
	}
}

type telegramWriter struct{ svc *Service }

func (w *telegramWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel never blocks the caller: lines over the rate limit or beyond
// the queue capacity are dropped.
func (w *telegramWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	s := w.svc
	s.mu.Lock()
	chatID := s.chatID
	lim := s.limiter
	minLevel := s.minLevel
	s.mu.Unlock()

	if chatID == 0 || lim == nil || level < minLevel || !lim.Allow() {
		return len(p), nil
	}
	msg := formatTelegramJSON(p)
	if msg == "" {
		return len(p), nil
	}
	select {
	case s.tgQueue <- msg:
	default:
	}
	return len(p), nil
}

// formatTelegramJSON renders one zerolog JSON line as
//
//	[LEVEL] message
//	- key=value
//
// with keys sorted so repeated errors read the same way.
func formatTelegramJSON(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(p), &m); err != nil {
		return truncate(strings.TrimSpace(string(p)), telegramMaxLen)
	}

	lvl, _ := m["level"].(string)
	msg, _ := m[zerolog.MessageFieldName].(string)

	var b strings.Builder
	if lvl != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(lvl))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case "time", "level", zerolog.MessageFieldName:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}
	return truncate(b.String(), telegramMaxLen)
}

// truncate cuts s to at most maxN bytes without splitting a UTF-8
// sequence.
func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	suffix := "..."
	if maxN < 10 {
		suffix = ""
	}
	cut := maxN - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
