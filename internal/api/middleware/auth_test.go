package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/api/middleware"
	"github.com/aqicast/aqicast/internal/auth"
)

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()

	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		AdminKey:   "test-admin-key",
		Issuer:     "https://api.aqicast.pk",
		Audience:   "aqicast-api",
	})
}

// authorize wraps a trivial handler in the auth middleware and sends one
// request carrying the given Authorization header.
func authorize(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()

	handler := middleware.Auth(newTestJWTService(t))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuth_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{
			name:       "no header",
			header:     "",
			wantDetail: "missing authorization header",
		},
		{
			name:       "no bearer prefix",
			header:     "token123",
			wantDetail: "invalid authorization header format",
		},
		{
			name:       "basic auth",
			header:     "Basic dXNlcjpwYXNz",
			wantDetail: "invalid authorization header format",
		},
		{
			name:       "bare bearer keyword",
			header:     "Bearer",
			wantDetail: "invalid authorization header format",
		},
		{
			name:       "bearer with no token",
			header:     "Bearer ",
			wantDetail: "missing bearer token",
		},
		{
			name:       "garbage token",
			header:     "Bearer invalid.jwt.token",
			wantDetail: "invalid access token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := authorize(t, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantDetail)
		})
	}
}

func TestAuth_ValidTokenExposesClaims(t *testing.T) {
	jwtService := newTestJWTService(t)

	token, _, err := jwtService.ExchangeAdminKey("test-admin-key")
	require.NoError(t, err)

	var claims *auth.Claims
	handler := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = middleware.GetAdminClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, auth.AdminRole, claims.Role)
}

func TestAuth_BearerPrefixIsCaseInsensitive(t *testing.T) {
	jwtService := newTestJWTService(t)

	token, _, err := jwtService.ExchangeAdminKey("test-admin-key")
	require.NoError(t, err)

	handler := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, prefix := range []string{"Bearer ", "bearer ", "BEARER "} {
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Authorization", prefix+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "prefix %q", prefix)
	}
}

func TestGetAdminClaims_NilWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Nil(t, middleware.GetAdminClaims(req.Context()))
}
