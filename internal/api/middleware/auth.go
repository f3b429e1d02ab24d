package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/baseuac/uac-api/internal/api/metrics"
	"github.com/baseuac/uac-api/internal/core/domain"
)

const userContextKey = "user"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Auth verifies the bearer token, loads its subject and stores the user in
// the echo context. A missing or non-bearer header fails with
// domain.ErrMissingCredentials; token and account failures propagate from
// the Authenticator.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return domain.ErrMissingCredentials
			}

			user, err := authn.CurrentUser(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(verificationResult(err)).Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrInactiveUser):
		return "inactive"
	default:
		return "invalid"
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userContextKey).(*domain.User)
	return u, ok && u != nil
}

// SetCurrentUser stores u as the authenticated user. Tests use it to bypass Auth.
func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(userContextKey, u)
}
