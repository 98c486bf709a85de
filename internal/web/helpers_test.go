// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/homepage/internal/cli"
	"go.astrophena.name/homepage/internal/logger"
)

func send(t testing.TB, h http.Handler, method, path string, wantStatus int) string {
	t.Helper()

	env := &cli.Env{Stderr: logger.Logf(t.Logf)}
	req := httptest.NewRequestWithContext(cli.WithEnv(context.Background(), env), method, path, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if wantStatus != rec.Code {
		t.Fatalf("want response code %d, got %d", wantStatus, rec.Code)
	}

	return rec.Body.String()
}
