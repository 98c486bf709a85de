// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/homepage/internal/testutil"
)

func TestLogfWriter(t *testing.T) {
	t.Parallel()

	var message string
	logf := func(format string, args ...any) {
		message = fmt.Sprintf(format, args...)
	}
	n, err := Logf(logf).Write([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, n, 5)
	testutil.AssertEqual(t, message, "hello")
}

func TestStreamerLines(t *testing.T) {
	t.Parallel()

	s := NewStreamer(3)
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(s, "Line %d\n", i)
	}
	// Unterminated lines are held back until the newline arrives.
	s.Write([]byte("Line "))

	testutil.AssertEqual(t, s.Lines(), []string{"Line 2\n", "Line 3\n", "Line 4\n"})

	s.Write([]byte("5\n"))
	testutil.AssertEqual(t, s.Lines(), []string{"Line 3\n", "Line 4\n", "Line 5\n"})
}

func TestStreamerStream(t *testing.T) {
	t.Parallel()

	s := NewStreamer(5)
	stream, stop := s.Stream()
	defer stop()

	go s.Write([]byte("New line\n"))

	select {
	case line := <-stream:
		testutil.AssertEqual(t, line, "New line\n")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for streamed line")
	}

	// Stopping twice is fine.
	stop()
	stop()
}

func TestFollowDuringWrites(t *testing.T) {
	t.Parallel()

	const total = 500
	lb := NewStreamer(total).(*lineBuffer)

	var want []string
	for i := range total {
		want = append(want, fmt.Sprintf("Line %d\n", i))
	}

	half := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, line := range want {
			if i == total/2 {
				close(half)
			}
			lb.Write([]byte(line))
		}
	}()

	<-half
	got, stream, stop := lb.follow()
	defer stop()
	<-done

drain:
	for {
		select {
		case line := <-stream:
			got = append(got, line)
		default:
			break drain
		}
	}
	testutil.AssertEqual(t, got, want)
}

func TestStreamerServeHTTP(t *testing.T) {
	t.Parallel()

	s := NewStreamer(5)
	s.Write([]byte("Server is running on port 3000\n"))

	req := httptest.NewRequest(http.MethodGet, "/debug/logs", nil)
	req.Header.Set("Accept", "text/event-stream")
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.Write([]byte("GET /home\n"))
	}()

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	testutil.AssertEqual(t, w.Header().Get("Content-Type"), "text/event-stream")
	body := w.Body.String()
	for _, want := range []string{
		"event: logline\ndata: Server is running on port 3000\n\n",
		"event: logline\ndata: GET /home\n\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body must contain %q, got %q", want, body)
		}
	}
}
