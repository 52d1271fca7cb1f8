// Package systemd integrates the process with the systemd service manager.
//
// All functions are no-ops when the process does not run under systemd
// (NOTIFY_SOCKET / WATCHDOG_USEC unset), so callers never need to guard.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady signals service startup completion (Type=notify units).
func NotifyReady() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

// NotifyStopping signals that shutdown has begun.
func NotifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// RunWatchdog pings the systemd watchdog at half the configured interval
// until ctx is cancelled. It returns immediately when no watchdog is set.
func RunWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}

	t := time.NewTicker(interval / 2)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
