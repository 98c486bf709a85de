// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package systemd

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.astrophena.name/homepage/internal/testutil"
)

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (tl *testLogger) logf(format string, args ...any) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.messages = append(tl.messages, fmt.Sprintf(format, args...))
}

func listen(t *testing.T) (*net.UnixConn, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "n.sock")
	l, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("can't listen on unixgram socket: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, path
}

func read(t *testing.T, l *net.UnixConn) string {
	t.Helper()
	l.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 512)
	n, _, err := l.ReadFromUnix(buf)
	if err != nil {
		t.Fatalf("Failed to read from unixgram socket: %v", err)
	}
	return string(buf[:n])
}

func TestNotify(t *testing.T) {
	l, path := listen(t)
	n := &Notifier{
		Getenv: func(key string) string {
			return map[string]string{"NOTIFY_SOCKET": path}[key]
		},
	}

	n.Notify(Ready)
	testutil.AssertEqual(t, read(t, l), "READY=1")

	n.Notify(Stopping)
	testutil.AssertEqual(t, read(t, l), "STOPPING=1")
}

func TestNotifyOutsideSystemd(t *testing.T) {
	tl := &testLogger{}
	n := &Notifier{Getenv: func(string) string { return "" }, Logf: tl.logf}
	n.Notify(Ready)
	testutil.AssertEqual(t, len(tl.messages), 0)
}

func TestNotifyMissingSocket(t *testing.T) {
	tl := &testLogger{}
	gone := filepath.Join(t.TempDir(), "gone.sock")
	n := &Notifier{
		Getenv: func(key string) string {
			return map[string]string{"NOTIFY_SOCKET": gone}[key]
		},
		Logf: tl.logf,
	}
	n.Notify(Ready)
	testutil.AssertEqual(t, len(tl.messages), 1)
}

func TestWatchdogLoop(t *testing.T) {
	l, path := listen(t)
	n := &Notifier{
		Getenv: func(key string) string {
			return map[string]string{
				"NOTIFY_SOCKET": path,
				"WATCHDOG_USEC": "200000", // pinged every 0.1 second
			}[key]
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.WatchdogLoop(ctx)
	}()

	testutil.AssertEqual(t, read(t, l), "WATCHDOG=1")

	cancel()
	<-done
}

func TestWatchdogInterval(t *testing.T) {
	cases := map[string]struct {
		usec    string
		want    time.Duration
		wantErr bool
	}{
		"one second":   {usec: "1000000", want: 500 * time.Millisecond},
		"not a number": {usec: "soon", wantErr: true},
		"zero":         {usec: "0", wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			n := &Notifier{Getenv: func(string) string { return tc.usec }}
			got, err := n.watchdogInterval()
			if (err != nil) != tc.wantErr {
				t.Fatalf("want error: %v, got %v", tc.wantErr, err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}
