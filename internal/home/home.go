// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package home serves the home page from a file on disk.
//
// The file is read in full on every request. Read failures of any kind are
// answered with the same fixed 500 response; the cause is only logged.
package home

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"go.astrophena.name/homepage/internal/cli"
)

const (
	// FileName is the name of the home page file, relative to the served
	// directory.
	FileName = "home.html"
	// ErrorMessage is the response body sent when the home page can't be
	// read.
	ErrorMessage = "Error loading home page"
	// ContentType is sent with every response of the [Handler].
	ContentType = "text/html; charset=utf-8"
)

// Handler serves the contents of [FileName] from FS.
type Handler struct {
	// FS is the directory the home page is read from, usually the working
	// directory.
	FS fs.FS
}

// New returns a Handler that reads the home page from dir. dir is resolved on
// every request, so a relative dir follows the working directory.
func New(dir fs.FS) *Handler { return &Handler{FS: dir} }

// ServeHTTP implements the [http.Handler] interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, err := h.Read()

	w.Header().Set("Content-Type", ContentType)
	if err != nil {
		cli.GetEnv(r.Context()).Logf("home: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(ErrorMessage))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// Read returns the full contents of the home page.
func (h *Handler) Read() ([]byte, error) {
	if h.FS == nil {
		return nil, errors.New("no directory to read from")
	}
	b, err := fs.ReadFile(h.FS, FileName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	return b, nil
}

// Check reports whether the home page exists and is a regular file. It is
// meant to be registered as a health check and doesn't read the file.
func (h *Handler) Check() (status string, ok bool) {
	if h.FS == nil {
		return "no directory to read from", false
	}
	fi, err := fs.Stat(h.FS, FileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return FileName + " does not exist", false
	case err != nil:
		return err.Error(), false
	case !fi.Mode().IsRegular():
		return FileName + " is not a regular file", false
	}
	return "ok", true
}

// Size returns the size of the home page in bytes, or -1 if it can't be
// determined.
func (h *Handler) Size() int64 {
	if h.FS == nil {
		return -1
	}
	fi, err := fs.Stat(h.FS, FileName)
	if err != nil {
		return -1
	}
	return fi.Size()
}
