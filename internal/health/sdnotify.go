package health

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "ethinline/pkg/logx"
)

// Notifier speaks the sd_notify protocol. Outside a systemd unit (no
// NOTIFY_SOCKET) every call is a no-op.
type Notifier struct {
	log logx.Logger

	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)
}

func NewNotifier(log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		log:      log.With(logx.String("comp", "sdnotify")),
		notify:   func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		watchdog: func() (time.Duration, error) { return daemon.SdWatchdogEnabled(false) },
	}
}

func (n *Notifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

func (n *Notifier) send(state string) bool {
	sent, err := n.notify(state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return false
	}
	if sent {
		n.log.Debug("sd_notify", logx.String("state", state))
	}
	return sent
}

// Watchdog pings the systemd watchdog at half the configured WatchdogSec
// until ctx ends. It returns at once when the unit has no watchdog.
func (n *Notifier) Watchdog(ctx context.Context) error {
	every, err := n.watchdog()
	if err != nil {
		n.log.Warn("watchdog config invalid", logx.Err(err))
		return nil
	}
	if every <= 0 {
		return nil
	}
	every /= 2
	n.log.Info("watchdog enabled", logx.Duration("interval", every))

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
