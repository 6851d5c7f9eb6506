package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

var allowedUpdates = []string{"message", "inline_query"}

// streamPoller is a long poller that, unlike tele.LongPoller, stops for good
// on errors that retrying cannot fix (revoked token, a second instance
// polling the same bot) and reports them through onFatal.
type streamPoller struct {
	timeout     time.Duration
	onFatal     func(error)
	onTransient func(err error, backoff time.Duration)

	offset int
}

func (p *streamPoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	const (
		minBackoff = 500 * time.Millisecond
		maxBackoff = 30 * time.Second
	)
	backoff := minBackoff
	for {
		select {
		case <-stop:
			return
		default:
		}

		updates, err := p.fetch(b)
		if err != nil {
			if isFatalPollError(err) {
				if p.onFatal != nil {
					p.onFatal(err)
				}
				return
			}
			if p.onTransient != nil {
				p.onTransient(err, backoff)
			}
			t := time.NewTimer(backoff)
			select {
			case <-stop:
				t.Stop()
				return
			case <-t.C:
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = minBackoff

		for _, u := range updates {
			p.offset = u.ID + 1
			select {
			case dest <- u:
			case <-stop:
				return
			}
		}
	}
}

func (p *streamPoller) fetch(b *tele.Bot) ([]tele.Update, error) {
	params := map[string]any{
		"offset":          p.offset,
		"timeout":         int(p.timeout / time.Second),
		"allowed_updates": allowedUpdates,
	}
	data, err := b.Raw("getUpdates", params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Result []tele.Update `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode getUpdates: %w", err)
	}
	return resp.Result, nil
}

// isFatalPollError reports whether getUpdates failed in a way that will
// not heal: 401 (bad or revoked token), 404 (malformed token) or 409
// (webhook set, or another process polling).
func isFatalPollError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, tele.ErrUnauthorized) {
		return true
	}
	var te *tele.Error
	if errors.As(err, &te) {
		switch te.Code {
		case 401, 404, 409:
			return true
		}
		return false
	}
	msg := err.Error()
	for _, code := range []string{"(401)", "(404)", "(409)"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
