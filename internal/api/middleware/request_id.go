// Package middleware holds the HTTP middleware chain for the aqicast API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader carries the request ID on both requests and responses.
const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// newRequestID returns a short prefixed ID, e.g. "req_1b4e28ba-2fa1-11d2-883".
func newRequestID() string {
	return "req_" + uuid.NewString()[:22]
}

// RequestID tags every request with an ID, honoring one supplied by the
// caller. The ID rides the request context and the X-Request-Id response
// header so log lines and problem responses can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by RequestID, or "" when the
// context carries none.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
