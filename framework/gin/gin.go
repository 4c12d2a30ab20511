// Package sessiongin adapts the session middleware to gin.
package sessiongin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/core"
)

// IdentityKey is the gin context key the resolved identity is stored under,
// in addition to the request context.
const IdentityKey = "session.identity"

// New returns gin middleware that resolves the session once per request.
// It never aborts: anonymous requests continue without an identity.
func New(m *sessionmiddleware.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Skip(c.Request) {
			if id := m.Resolve(c.Request); id != nil {
				c.Request = c.Request.WithContext(core.SetIdentity(c.Request.Context(), id))
				c.Set(IdentityKey, id)
			}
		}
		c.Next()
	}
}

// RequireIdentity aborts anonymous requests. It must be mounted after New.
func RequireIdentity(opts ...Option) gin.HandlerFunc {
	cfg := &config{unauthenticated: defaultUnauthenticated}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			cfg.unauthenticated(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the identity resolved for this request.
func GetIdentity(c *gin.Context) (*core.Identity, bool) {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(*core.Identity); ok {
			return id, true
		}
	}
	id, err := core.GetIdentity(c.Request.Context())
	return id, err == nil
}

func defaultUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "Authentication required.",
	})
}
