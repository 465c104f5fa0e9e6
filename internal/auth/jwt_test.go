package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/auth"
)

const (
	testSigningKey = "test-secret-key-for-testing-only"
	testAdminKey   = "test-admin-key"
	testIssuer     = "https://api.aqicast.pk"
	testAudience   = "aqicast-api"
)

func newTestService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: testSigningKey,
		AdminKey:   testAdminKey,
		Issuer:     testIssuer,
		Audience:   testAudience,
	})
}

func TestJWTService_ExchangeAndValidate(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.ExchangeAdminKey(testAdminKey)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.AdminRole, claims.Role)
	assert.Equal(t, auth.AdminRole, claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ExchangeAdminKey_WrongKey(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.ExchangeAdminKey("not-the-key")
	assert.ErrorIs(t, err, auth.ErrInvalidAdminKey)
}

func TestJWTService_ExchangeAdminKey_NotConfigured(t *testing.T) {
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: testSigningKey,
		Issuer:     testIssuer,
		Audience:   testAudience,
	})

	// An empty configured key must never match an empty presented key.
	_, _, err := svc.ExchangeAdminKey("")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newTestService()

	for name, token := range map[string]string{
		"empty":         "",
		"not a jwt":     "garbage",
		"fake segments": "xxx.yyy.zzz",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

// Tokens issued under one configuration must not validate under another.
func TestJWTService_CrossConfigRejection(t *testing.T) {
	base := auth.JWTConfig{
		SigningKey: testSigningKey,
		AdminKey:   testAdminKey,
		Issuer:     testIssuer,
		Audience:   testAudience,
	}

	tests := []struct {
		name   string
		mutate func(*auth.JWTConfig)
	}{
		{"different signing key", func(c *auth.JWTConfig) { c.SigningKey = "some-other-secret" }},
		{"different issuer", func(c *auth.JWTConfig) { c.Issuer = "https://api.example.org" }},
		{"different audience", func(c *auth.JWTConfig) { c.Audience = "other-api" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := auth.NewJWTService(base).ExchangeAdminKey(testAdminKey)
			require.NoError(t, err)

			cfg := base
			tt.mutate(&cfg)

			_, err = auth.NewJWTService(cfg).ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_MissingRoleClaim(t *testing.T) {
	svc := newTestService()

	// Hand-sign a token with the right key and registered claims but no
	// role, as a non-admin token minted elsewhere would look.
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "someone",
		Audience:  jwt.ClaimStrings{testAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := newTestService()

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   auth.AdminRole,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		Role: auth.AdminRole,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}
