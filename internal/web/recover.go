// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Recoverer is a [Middleware] that turns a panic in next into a logged error
// and the HTML 500 page. [http.ErrAbortHandler] is re-panicked so net/http can
// abort the response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			RespondError(w, r, fmt.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack()))
		}()
		next.ServeHTTP(w, r)
	})
}
