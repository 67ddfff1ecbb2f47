// Package requesttime pins a single "now" for the lifetime of a request so that
// document timestamps, audit events and token expiry agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"docregistry/pkg/requestcontext"
)

// Middleware captures the current UTC time once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
