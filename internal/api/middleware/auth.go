package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "auth_token"
)

var authSchemes = []string{"bearer", "token"}

// Auth resolves the Authorization header to a user and injects it into the context.
// Both "Bearer <key>" and "Token <key>" are accepted.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
			}

			key, ok := parseAuthorization(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, err := authn.Authenticate(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyToken, key)

			return next(c)
		}
	}
}

func parseAuthorization(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	for _, scheme := range authSchemes {
		if strings.EqualFold(parts[0], scheme) {
			return parts[1], true
		}
	}
	return "", false
}
