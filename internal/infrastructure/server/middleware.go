package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/mbj/siteapi/internal/adapters/http"
	"github.com/mbj/siteapi/internal/domain/entities"
)

var errCORSDenied = echo.NewHTTPError(http.StatusForbidden, "CORS denied")

// bearerCredential turns the Authorization header into an entities.Credential
// for the admin handlers. Token verification happens in the content service.
func (s *Server) bearerCredential() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(authHeader, "Bearer ") {
				s.logger.LogSecurityEvent("missing_token", c.RealIP(), map[string]interface{}{
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
			}

			c.Set(httpHandlers.CredentialContextKey, entities.Credential{
				BearerToken: strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")),
				RemoteIP:    c.RealIP(),
			})

			return next(c)
		}
	}
}

// allowOrigin admits any origin when allowed is empty, otherwise only an exact
// match. Requests without an Origin header never reach this check.
func allowOrigin(allowed string) func(origin string) (bool, error) {
	allowed = strings.TrimSpace(allowed)
	return func(origin string) (bool, error) {
		if allowed == "" || origin == allowed {
			return true, nil
		}
		return false, errCORSDenied
	}
}
