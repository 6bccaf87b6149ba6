package controller

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/service/auth"
)

type loginAdminRequest struct {
	Secret string        `json:"secret" validate:"required"`
	TTL    time.Duration `json:"ttl"`
}

type loginAdminResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginAdmin trades the admin secret for a signed token, also set as a
// cookie.
func (c *Controller) LoginAdmin(ctx echo.Context) error {
	var req loginAdminRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	secret := c.service.Settings().AdminSecret()
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(req.Secret)) != 1 {
		return constants.ErrUnauthorized
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	token, err := c.service.Auth.IssueAdminToken(ctx.Request().Context(), ttl)
	if err != nil {
		return err
	}

	expires := time.Now().Add(ttl)
	ctx.SetCookie(&http.Cookie{
		Name:     constants.CookieKeySecretToken,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	return ctx.JSON(http.StatusOK, loginAdminResponse{Token: token, ExpiresAt: expires})
}
