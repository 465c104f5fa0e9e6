// Package auth issues and validates the admin tokens that protect the
// operational API surface.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token Policy
//
// There are no end-user accounts. The only protected surface is the admin
// API (flag overrides, manual collection runs), guarded by a single-token
// strategy:
//
//  1. An operator presents the shared admin key (X-Admin-Key header) to
//     POST /v1/auth/token.
//  2. The server exchanges it for a short-lived HS256 JWT carrying an
//     admin role claim.
//  3. Admin endpoints accept the JWT as a Bearer token until it expires;
//     the operator exchanges the key again afterwards.
//
// The admin key itself never travels on admin requests, only on the
// exchange. Key comparison is constant-time.

// Token expiry constants.
const (
	// AccessTokenExpiry is how long admin tokens are valid.
	// Short expiry (1 hour) limits exposure if a token is compromised.
	AccessTokenExpiry = 1 * time.Hour

	// AdminRole is the role claim carried by exchanged tokens.
	AdminRole = "admin"
)

// Predefined token errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrInvalidAdminKey    = errors.New("invalid admin key")
	ErrNotConfigured      = errors.New("admin authentication is not configured")
)

// Claims represents the claims in admin access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the authorization role granted by the token.
	Role string `json:"role"`
}

// JWTService handles admin token exchange and validation.
type JWTService struct {
	signingKey []byte
	adminKey   []byte
	issuer     string
	audience   string
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign JWTs.
	SigningKey string

	// AdminKey is the shared key exchanged for admin tokens.
	// Empty disables the exchange entirely.
	AdminKey string

	// Issuer is the issuer claim for tokens (e.g., "https://api.aqicast.pk").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "aqicast-api").
	Audience string
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		adminKey:   []byte(cfg.AdminKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// ExchangeAdminKey validates the shared admin key and returns a signed
// admin token with its expiry.
func (s *JWTService) ExchangeAdminKey(key string) (string, time.Time, error) {
	if len(s.adminKey) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(key), s.adminKey) != 1 {
		return "", time.Time{}, ErrInvalidAdminKey
	}

	now := time.Now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   AdminRole,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		Role: AdminRole,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing admin token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken parses and verifies a Bearer token, returning its
// claims. Expired tokens map to ErrAccessTokenExpired; everything else
// wrong with a token maps to ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrAccessTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != AdminRole {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// keyFunc hands the signing key to the parser after checking the
// algorithm family.
func (s *JWTService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return s.signingKey, nil
}

// generateTokenID returns a random jti claim, or empty when the system
// random source fails.
func generateTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
