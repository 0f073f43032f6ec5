package transport

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/shared/auth"
)

const sessionContextKey = "dashboard.session"

// SessionMiddleware validates the bearer token (or ?token= for websocket upgrades) and stores
// the dashboard session on the echo context.
func SessionMiddleware(validator auth.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractToken(c.Request(), "token")
			claims, err := validator.Validate(token)
			if err != nil {
				slog.Warn("session auth failed", slog.String("ip", c.RealIP()), slog.String("path", c.Path()), slog.Any("error", err))
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			c.Set(sessionContextKey, usecase.Session{
				Token:     token,
				UserID:    claims.UserID(),
				SessionID: claims.SessionID,
				Scope:     claims.Tenant,
				Roles:     claims.Roles,
			})
			return next(c)
		}
	}
}

func sessionFrom(c echo.Context) (usecase.Session, bool) {
	session, ok := c.Get(sessionContextKey).(usecase.Session)
	return session, ok
}
