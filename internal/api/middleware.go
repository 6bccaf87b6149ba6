package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
)

// AdminMiddleware accepts an admin token from the admin cookie or a Bearer
// Authorization header.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
			if err != nil {
				return constants.ErrUnauthorized
			}
			token = cookie.Value
		}

		if err := svc.service.Auth.Authorize(ctx.Request().Context(), token); err != nil {
			return err
		}

		return next(ctx)
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, constants.HeaderAuthType) {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestIDHandler puts the request ID on the request context so every log
// line of the request carries it.
func requestIDHandler(c echo.Context, id string) {
	req := c.Request()
	ctx := logger.WithFields(req.Context(), constants.CtxKeyRequestID, id)
	c.SetRequest(req.WithContext(ctx))
}
