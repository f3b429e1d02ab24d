package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/baseuac/uac-api/internal/api/metrics"
	"github.com/baseuac/uac-api/internal/core/domain"
)

// RBAC enforces guard against the user stored by Auth. It must run after Auth.
func RBAC(guard domain.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return domain.ErrMissingCredentials
			}
			if err := guard.Check(user); err != nil {
				result := "forbidden"
				if errors.Is(err, domain.ErrNoRoleAssigned) {
					result = "no_role"
				}
				metrics.AuthorizationDecisionsTotal.WithLabelValues(guard.Name(), result).Inc()
				return err
			}
			metrics.AuthorizationDecisionsTotal.WithLabelValues(guard.Name(), "allowed").Inc()
			return next(c)
		}
	}
}
