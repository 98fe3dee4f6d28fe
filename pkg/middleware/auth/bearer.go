package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/pkg/logging"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

const identityKey = "identity"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (tokens.Identity, error)
}

// CheckFunc decides whether an authenticated identity may continue.
type CheckFunc func(id tokens.Identity) error

func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "require_auth")

			raw, ok := BearerToken(c.Request())
			if !ok {
				l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			id, err := a.Authenticate(ctx, raw)
			if err != nil {
				if errors.Is(err, tokens.ErrBadSignature) {
					l.Warn("auth_failed", "status", 403, "reason", "bad signature", "error", err)
					return echo.NewHTTPError(http.StatusForbidden, "Invalid token")
				}
				l.Warn("auth_failed", "status", 401, "reason", "invalid token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			setUserContext(c, id)
			return next(c)
		}
	}
}

// Require must run after RequireAuth.
func Require(check CheckFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}
			if err := check(id); err != nil {
				logging.FromContext(c.Request().Context()).Warn("access_denied",
					"status", 403, "user_id", id.UserID, "role", id.Role, "error", err)
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}

func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func IdentityFrom(c echo.Context) (tokens.Identity, bool) {
	id, ok := c.Get(identityKey).(tokens.Identity)
	return id, ok
}

func setUserContext(c echo.Context, id tokens.Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", id.UserID.String())
	c.Set("role", id.Role)

	l := logging.FromContext(c.Request().Context()).With("user_id", id.UserID.String())
	c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))
}
