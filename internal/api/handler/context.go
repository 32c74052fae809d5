package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commission-dashboard/sales-api/internal/api/middleware"
	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// currentUser returns the user injected by the Auth middleware. Its absence
// means the route was mounted without authentication, which is reported as 401.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	return user, nil
}

func currentToken(c echo.Context) string {
	key, _ := c.Get(middleware.ContextKeyToken).(string)
	return key
}
