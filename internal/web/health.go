// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"net/url"
	"sync"
)

// Health returns the [HealthHandler] registered on mux at /health, creating it
// if necessary.
func Health(mux *http.ServeMux) *HealthHandler {
	h, pat := mux.Handler(&http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/health"}})
	if hh, ok := h.(*HealthHandler); ok && pat == "/health" {
		return hh
	}
	ret := &HealthHandler{checks: make(map[string]HealthFunc)}
	mux.Handle("/health", ret)
	return ret
}

// HealthHandler reports the results of registered checks as JSON. The status
// code is 200 if every check passes and 500 otherwise.
type HealthHandler struct {
	mu     sync.RWMutex
	checks map[string]HealthFunc
}

// HealthFunc reports the state of a single part of the service. It must be
// safe for concurrent use.
type HealthFunc func() (status string, ok bool)

// RegisterFunc adds a check under name. It panics if name is taken.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.checks[name]; dup {
		panic("health: check " + name + " is already registered")
	}
	h.checks[name] = f
}

type healthResponse struct {
	OK     bool                   `json:"ok"`
	Checks map[string]checkResult `json:"checks"`
}

type checkResult struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{OK: true, Checks: make(map[string]checkResult)}

	h.mu.RLock()
	for name, f := range h.checks {
		status, ok := f()
		resp.OK = resp.OK && ok
		resp.Checks[name] = checkResult{Status: status, OK: ok}
	}
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if !resp.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	RespondJSON(w, resp)
}
