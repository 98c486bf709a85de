// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/homepage/internal/testutil"
)

func TestRespondError(t *testing.T) {
	cases := map[string]struct {
		err        error
		wantStatus int
		wantInBody string
	}{
		"not found": {
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantInBody: "404 Not Found",
		},
		"wrapped method not allowed": {
			err:        fmt.Errorf("POST /home: %w", ErrMethodNotAllowed),
			wantStatus: http.StatusMethodNotAllowed,
			wantInBody: "405 Method Not Allowed",
		},
		"plain error": {
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantInBody: "500 Internal Server Error",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				RespondError(w, r, tc.err)
			})
			body := send(t, h, http.MethodGet, "/", tc.wantStatus)
			if !strings.Contains(body, tc.wantInBody) {
				t.Errorf("body must contain %q, got %q", tc.wantInBody, body)
			}
			if strings.Contains(body, "disk on fire") {
				t.Error("error details must not leak to the client")
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, map[string]bool{"ok": true})
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
	testutil.AssertEqual(t, w.Body.String(), "{\n  \"ok\": true\n}\n")

	w = httptest.NewRecorder()
	RespondJSON(w, func() {})
	testutil.AssertEqual(t, w.Code, http.StatusInternalServerError)
	if !strings.Contains(w.Body.String(), "JSON marshal error") {
		t.Errorf("want marshal error in body, got %q", w.Body.String())
	}
}

func TestStatusErr(t *testing.T) {
	testutil.AssertEqual(t, ErrNotFound.Error(), "not found")
	testutil.AssertEqual(t, ErrInternalServerError.Error(), "internal server error")
}
