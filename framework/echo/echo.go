// Package sessionecho adapts the session middleware to echo.
package sessionecho

import (
	"net/http"

	"github.com/labstack/echo/v4"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/core"
)

// IdentityKey is the echo context key the resolved identity is stored under.
const IdentityKey = "session.identity"

// New returns echo middleware that resolves the session once per request.
func New(m *sessionmiddleware.Middleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if !m.Skip(r) {
				if id := m.Resolve(r); id != nil {
					c.SetRequest(r.WithContext(core.SetIdentity(r.Context(), id)))
					c.Set(IdentityKey, id)
				}
			}
			return next(c)
		}
	}
}

// RequireIdentity refuses anonymous requests with the configured handler
// (401 JSON by default). It must be mounted after New.
func RequireIdentity(opts ...Option) echo.MiddlewareFunc {
	cfg := &config{unauthenticated: defaultUnauthenticated}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := GetIdentity(c); !ok {
				return cfg.unauthenticated(c)
			}
			return next(c)
		}
	}
}

// GetIdentity returns the identity resolved for this request.
func GetIdentity(c echo.Context) (*core.Identity, bool) {
	if id, ok := c.Get(IdentityKey).(*core.Identity); ok {
		return id, true
	}
	id, err := core.GetIdentity(c.Request().Context())
	return id, err == nil
}

func defaultUnauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"message": "Authentication required.",
	})
}
