package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/baseuac/uac-api/internal/api/middleware"
	"github.com/baseuac/uac-api/internal/core/domain"
)

// ctxUser returns the user injected by the Auth middleware. A missing user
// means the route was registered without Auth; treat it as unauthenticated.
func ctxUser(c echo.Context) (*domain.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, domain.ErrMissingCredentials
	}
	return u, nil
}
