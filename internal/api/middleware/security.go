package middleware

import (
	"net/http"
	"os"

	"github.com/aqicast/aqicast/internal/api/models"
)

// securityHeaders are stamped on every response. The CSP and
// Permissions-Policy values assume a JSON API with no browser surface.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), camera=(), microphone=()",
}

// SecurityHeaders adds the standard security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for name, value := range securityHeaders {
			h.Set(name, value)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects plain-HTTP requests when REQUIRE_TLS=true. The check
// trusts the X-Forwarded-Proto header stamped by the load balancer; requests
// without the header (direct connections, local development) pass through.
func RequireTLS(next http.Handler) http.Handler {
	if os.Getenv("REQUIRE_TLS") != "true" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto := r.Header.Get("X-Forwarded-Proto")
		if proto == "" || proto == "https" {
			next.ServeHTTP(w, r)
			return
		}

		problem := models.NewProblem(
			"https://api.aqicast.pk/problems/tls-required",
			"TLS required",
			http.StatusForbidden,
			GetRequestID(r.Context()),
		)
		problem.Detail = "This endpoint requires HTTPS"
		problem.Instance = r.URL.Path
		problem.Write(w)
	})
}
