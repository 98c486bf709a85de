// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"go.astrophena.name/homepage/internal/cli"
	"go.astrophena.name/homepage/internal/home"
	"go.astrophena.name/homepage/internal/logger"
	"go.astrophena.name/homepage/internal/web"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() { cli.Main(new(engine)) }

const (
	defaultPort  = 3000
	logLineLimit = 300
)

type engine struct {
	home      *home.Handler
	logStream logger.Streamer
	logf      logger.Logf
	mux       *http.ServeMux
	srv       *web.Server

	// configuration, read-only after initialization
	addr    string
	debug   bool
	dir     fs.FS
	envFile string
	port    int
	verbose bool

	// for tests
	noServerStart bool
	ready         func(addr net.Addr) // see web.Server.Ready
}

func (e *engine) Flags(fs *flag.FlagSet) {
	fs.IntVar(&e.port, "port", 0, "Listen on `port`. Overrides the PORT environment variable.")
	fs.BoolVar(&e.debug, "debug", false, "Serve debug pages at /debug/. Can also be enabled by DEBUG=true.")
	fs.BoolVar(&e.verbose, "verbose", false, "Log every request.")
	fs.StringVar(&e.envFile, "envfile", ".env", "Read environment variables from `file`, if it exists. Empty disables.")
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	getenv := env.Getenv
	if e.envFile != "" {
		var err error
		getenv, err = cli.DotEnv(e.envFile, env.Getenv)
		if err != nil {
			return err
		}
	}

	port, err := resolvePort(e.port, getenv("PORT"))
	if err != nil {
		return err
	}
	e.addr = ":" + strconv.Itoa(port)
	if debug, err := strconv.ParseBool(getenv("DEBUG")); err == nil && debug {
		e.debug = true
	}

	// Everything logged from now on also goes to the in-memory log buffer.
	e.logStream = logger.NewStreamer(logLineLimit)
	srvEnv := &cli.Env{
		Args:   env.Args,
		Getenv: getenv,
		Stdin:  env.Stdin,
		Stdout: env.Stdout,
		Stderr: io.MultiWriter(env.Stderr, e.logStream),
	}
	e.logf = srvEnv.Logf
	e.doInit()

	if e.noServerStart {
		return nil
	}

	return e.srv.ListenAndServe(cli.WithEnv(ctx, srvEnv))
}

// resolvePort picks the port to listen on: the flag if set, otherwise the
// PORT environment variable, otherwise the default.
func resolvePort(flagPort int, envPort string) (int, error) {
	if flagPort != 0 {
		if flagPort < 0 || flagPort > 65535 {
			return 0, fmt.Errorf("%w: -port %d is out of range", cli.ErrInvalidArgs, flagPort)
		}
		return flagPort, nil
	}
	if envPort == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(envPort)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%w: PORT %q is not a valid port number", cli.ErrInvalidArgs, envPort)
	}
	return port, nil
}

func (e *engine) doInit() {
	if e.dir == nil {
		e.dir = os.DirFS(".")
	}
	if e.logf == nil {
		e.logf = logger.Discard
	}
	if e.logStream == nil {
		e.logStream = logger.NewStreamer(logLineLimit)
	}
	e.home = home.New(e.dir)

	e.initRoutes()

	var mw []web.Middleware
	if e.verbose {
		mw = append(mw, middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.New(e.logf, "", 0),
			NoColor: true,
		}))
	}

	e.srv = &web.Server{
		Addr:       e.addr,
		Mux:        e.mux,
		Debuggable: e.debug,
		Middleware: mw,
		Ready: func(addr net.Addr) {
			port := e.addr
			if tcpAddr, ok := addr.(*net.TCPAddr); ok {
				port = strconv.Itoa(tcpAddr.Port)
			}
			e.logf("Server is running on port %s", port)
			if e.ready != nil {
				e.ready(addr)
			}
		},
	}
}

func (e *engine) initRoutes() {
	r := chi.NewRouter()
	r.Use(web.Recoverer)
	r.Use(middleware.GetHead)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, r, web.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.RespondError(w, r, web.ErrMethodNotAllowed)
	})
	r.Method(http.MethodGet, "/home", e.home)

	e.mux = http.NewServeMux()
	e.mux.Handle("/", r)

	web.Health(e.mux).RegisterFunc("home-page", e.home.Check)

	if !e.debug {
		return
	}
	dbg := web.Debugger(e.mux)
	homePath := home.FileName
	if wd, err := os.Getwd(); err == nil {
		homePath = filepath.Join(wd, home.FileName)
	}
	dbg.KV("Home page", homePath)
	dbg.KVFunc("Home page size", func() any {
		size := e.home.Size()
		if size < 0 {
			return "unavailable"
		}
		return humanize.Bytes(uint64(size))
	})
	dbg.KVFunc("Started", func() any { return humanize.Time(web.StartTime) })
	dbg.Handle("logs", "Logs", e.logStream)
}
