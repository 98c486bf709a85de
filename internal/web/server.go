// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.astrophena.name/homepage/internal/cli"
	"go.astrophena.name/homepage/internal/systemd"

	"github.com/benbjohnson/hashfs"
)

// Server is used to configure the HTTP server started by
// [Server.ListenAndServe].
//
// All fields of Server can't be modified after [Server.ListenAndServe] is
// called.
type Server struct {
	// Addr is a network address to listen on (in the form of "host:port").
	Addr string
	// Mux is a http.ServeMux to serve. /health and /static/ (and /debug/, if
	// Debuggable is set) are registered on it.
	Mux *http.ServeMux
	// Debuggable specifies whether to register debug handlers at /debug/.
	Debuggable bool
	// Middleware is applied to every request, in order, outermost first.
	Middleware []Middleware
	// Ready, if set, is called once the listener is bound, with its actual
	// address. If nil, the address is logged.
	Ready func(addr net.Addr)
}

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// ShutdownTimeout is how long ListenAndServe waits for in-flight requests
// after the context is canceled.
const ShutdownTimeout = 30 * time.Second

var (
	errNoAddr = errors.New("s.Addr is empty")
	errNilMux = errors.New("s.Mux is nil")
)

// ListenAndServe starts the HTTP server and blocks until ctx is canceled or
// serving fails. Cancellation results in a graceful shutdown.
//
// Logs are written with [cli.Env.Logf] of the environment carried by ctx.
// The environment is also available to handlers via [cli.GetEnv].
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Addr == "" {
		return errNoAddr
	}
	if s.Mux == nil {
		return errNilMux
	}
	env := cli.GetEnv(ctx)

	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer l.Close()

	s.initInternalRoutes()

	var handler http.Handler = s.Mux
	for i := len(s.Middleware) - 1; i >= 0; i-- {
		handler = s.Middleware[i](handler)
	}

	// Requests outlive ctx for the duration of the graceful shutdown, but
	// their contexts are canceled once it starts so that handlers waiting
	// on them, like log streams, return.
	baseCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()
	httpSrv := &http.Server{
		ErrorLog:          log.New(env.Stderr, "", 0),
		Handler:           setHeaders(handler),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	httpSrv.RegisterOnShutdown(cancelRequests)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.Ready != nil {
		s.Ready(l.Addr())
	} else {
		env.Logf("Listening on %s...", l.Addr())
	}

	sd := &systemd.Notifier{Getenv: env.Getenv, Logf: env.Logf}
	sd.Notify(systemd.Ready)
	watchdogCtx, stopWatchdog := context.WithCancel(ctx)
	defer stopWatchdog()
	go sd.WatchdogLoop(watchdogCtx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		env.Logf("Gracefully shutting down...")
		sd.Notify(systemd.Stopping)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		return httpSrv.Shutdown(shutdownCtx)
	}
}

func setHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

//go:embed static
var embedFS embed.FS

// StaticFS is a [fs.FS] that contains static resources served on /static/ path
// prefix of [Server] muxes.
var StaticFS = hashfs.NewFS(embedFS)

func (s *Server) initInternalRoutes() {
	s.Mux.Handle("/static/", hashfs.FileServer(StaticFS))
	Health(s.Mux)
	if s.Debuggable {
		Debugger(s.Mux)
	}
}
