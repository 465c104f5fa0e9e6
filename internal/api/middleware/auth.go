package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/auth"
)

type adminClaimsKey struct{}

const bearerPrefix = "Bearer "

// Auth validates the admin bearer token and stores the verified claims on
// the request context. Every failure mode maps to a 401 problem response;
// the detail string distinguishes them for the caller.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r)
			if detail != "" {
				unauthorized(w, r, detail)
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				unauthorized(w, r, validationDetail(err))
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken pulls the token out of the Authorization header. The prefix
// match is case-insensitive. The second return value carries the failure
// detail and is empty on success.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	switch {
	case header == "":
		return "", "missing authorization header"
	case len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix):
		return "", "invalid authorization header format"
	case header[len(bearerPrefix):] == "":
		return "", "missing bearer token"
	}
	return header[len(bearerPrefix):], ""
}

func validationDetail(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken):
		return "invalid access token"
	default:
		return "authentication failed"
	}
}

// unauthorized writes a 401 problem response. The models package is used
// directly rather than response to avoid an import cycle.
func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetAdminClaims returns the claims stored by Auth, or nil when the
// request did not pass through it.
func GetAdminClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(adminClaimsKey{}).(*auth.Claims)
	return claims
}
