package handler

import (
	"errors"
	"net/http"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
	}
}

// ExchangeToken handles POST /v1/auth/token - exchange the admin key for a
// short-lived access token.
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if adminKey == "" {
		response.BadRequest(w, r, "X-Admin-Key header is required", nil)
		return
	}

	token, expiresAt, err := h.jwtService.ExchangeAdminKey(adminKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAdminKey) {
			response.Unauthorized(w, r, "invalid admin key")
			return
		}
		if errors.Is(err, auth.ErrNotConfigured) {
			response.ServiceUnavailable(w, r, "admin token exchange is not configured")
			return
		}

		response.InternalError(w, r, "token exchange failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}
