// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd lets services report their state to systemd with the
// sd_notify protocol. Outside of systemd everything here is a no-op.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"go.astrophena.name/homepage/internal/logger"
)

// State defines a sd-notify protocol state.
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
type State string

const (
	// Ready tells the service manager that service startup is finished.
	Ready State = "READY=1"
	// Stopping tells the service manager that the service is beginning its
	// shutdown.
	Stopping State = "STOPPING=1"
	// Watchdog tells the service manager to update the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Notifier sends states to the socket named by the NOTIFY_SOCKET
// environment variable.
type Notifier struct {
	// Getenv looks up environment variables. If nil, os.Getenv is used.
	Getenv func(string) string
	// Logf receives errors. If nil, they are discarded.
	Logf logger.Logf
}

func (n *Notifier) getenv(key string) string {
	if n.Getenv == nil {
		return os.Getenv(key)
	}
	return n.Getenv(key)
}

func (n *Notifier) logf(format string, args ...any) {
	if n.Logf != nil {
		n.Logf(format, args...)
	}
}

// Notify sends state to systemd. Failures are logged, not returned: a
// service must keep working if the notification socket is gone.
func (n *Notifier) Notify(state State) {
	addr := &net.UnixAddr{
		Net:  "unixgram",
		Name: n.getenv("NOTIFY_SOCKET"),
	}
	if addr.Name == "" {
		// Not running under systemd.
		return
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		n.logf("systemd: failed when notifying: %v", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(state)); err != nil {
		n.logf("systemd: failed when notifying: %v", err)
	}
}

// WatchdogLoop periodically updates the systemd watchdog timestamp until ctx
// is canceled. It returns immediately if the watchdog is not enabled.
func (n *Notifier) WatchdogLoop(ctx context.Context) {
	if n.getenv("WATCHDOG_USEC") == "" {
		return
	}

	interval, err := n.watchdogInterval()
	if err != nil {
		n.logf("%v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.Notify(Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

// watchdogInterval returns half of WATCHDOG_USEC, as sd_watchdog_enabled(3)
// recommends.
func (n *Notifier) watchdogInterval() (time.Duration, error) {
	usec, err := strconv.Atoi(n.getenv("WATCHDOG_USEC"))
	if err != nil {
		return 0, fmt.Errorf("systemd: error converting WATCHDOG_USEC: %w", err)
	}
	if usec <= 0 {
		return 0, errors.New("systemd: WATCHDOG_USEC must be a positive number")
	}
	return time.Duration(usec) * time.Microsecond / 2, nil
}
