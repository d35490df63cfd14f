package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

const identityKey = "identity"

// Auth resolves the session token to the caller's current identity and
// injects it into the context. The token comes from the session cookie, or an
// Authorization: Bearer header when the cookie is absent.
func Auth(authz ports.Authorizer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := sessionToken(c, cookieName)
			if err != nil {
				return err
			}

			id, err := authz.Authorize(c.Request().Context(), token, "")
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
				}
				return err
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) (string, error) {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value, nil
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", domain.ErrUnauthenticated
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}

// SetIdentity stores the acting identity on the request context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity injected by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok && id.UserID != ""
}
