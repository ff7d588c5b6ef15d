package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/passport/internal/api/handler"
	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

// Auth resolves the bearer token to a live session and injects the session
// identity into the context. Revoked or expired sessions are rejected even
// when the token signature is still valid.
func Auth(sessions ports.SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			token := strings.TrimSpace(parts[1])

			session, err := sessions.Resolve(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(handler.CtxUserID, session.UserID)
			c.Set(handler.CtxToken, token)

			return next(c)
		}
	}
}
