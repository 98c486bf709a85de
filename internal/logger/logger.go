// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines a type for writing to logs and a line buffer that
// keeps the most recent log lines in memory so they can be inspected over
// HTTP.
package logger

import (
	"container/ring"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface.
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Discard is a Logf that throws everything away.
func Discard(format string, args ...any) {}

// Streamer is an [io.Writer] that remembers the last logged lines and allows
// to follow new ones.
type Streamer interface {
	io.Writer
	http.Handler

	// Lines returns the remembered lines, oldest first.
	Lines() []string

	// Stream returns a channel that receives every line logged after the
	// call. Call the returned function to stop receiving.
	Stream() (<-chan string, func())
}

// NewStreamer returns a new Streamer that remembers up to size lines.
func NewStreamer(size int) Streamer {
	return &lineBuffer{
		size:    size,
		r:       ring.New(size),
		streams: make(map[chan string]struct{}),
	}
}

type lineBuffer struct {
	mu      sync.RWMutex
	size    int
	partial string // unterminated tail of the last write
	r       *ring.Ring
	streams map[chan string]struct{}
}

func (lb *lineBuffer) Write(b []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	text := lb.partial + string(b)
	for {
		idx := strings.IndexByte(text, '\n')
		if idx == -1 {
			break
		}
		line := text[:idx+1]
		text = text[idx+1:]

		lb.r.Value = line
		lb.r = lb.r.Next()
		for stream := range lb.streams {
			select {
			case stream <- line:
			default:
				// Slow reader, drop the line.
			}
		}
	}
	lb.partial = text
	return len(b), nil
}

func (lb *lineBuffer) Lines() []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.linesLocked()
}

func (lb *lineBuffer) linesLocked() []string {
	lines := make([]string, 0, lb.size)
	lb.r.Do(func(v any) {
		if v != nil {
			lines = append(lines, v.(string))
		}
	})
	return lines
}

func (lb *lineBuffer) Stream() (<-chan string, func()) {
	_, stream, stop := lb.follow()
	return stream, stop
}

// follow returns the remembered lines and a stream of the lines written after
// them. No line is in both, and none is missed.
func (lb *lineBuffer) follow() (lines []string, stream <-chan string, stop func()) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	ch := make(chan string, lb.size+1)
	lb.streams[ch] = struct{}{}

	var once sync.Once
	return lb.linesLocked(), ch, func() {
		once.Do(func() {
			lb.mu.Lock()
			defer lb.mu.Unlock()
			delete(lb.streams, ch)
			close(ch)
		})
	}
}

// ServeHTTP writes the remembered lines and then follows new ones until the
// client goes away. Clients that accept text/event-stream get server-sent
// events.
func (lb *lineBuffer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sse := strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/event-stream")
	if sse {
		w.Header().Set("Content-Type", "text/event-stream")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-cache")

	flush := func() {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	write := func(line string) {
		if sse {
			fmt.Fprintf(w, "event: logline\ndata: %s\n\n", strings.TrimSuffix(line, "\n"))
			return
		}
		io.WriteString(w, line)
	}

	lines, stream, stop := lb.follow()
	defer stop()

	for _, line := range lines {
		write(line)
	}
	flush()

	for {
		select {
		case line := <-stream:
			write(line)
			flush()
		case <-r.Context().Done():
			return
		}
	}
}

var _ Streamer = (*lineBuffer)(nil)
