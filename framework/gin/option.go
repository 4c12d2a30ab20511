package sessiongin

import (
	"github.com/gin-gonic/gin"
)

type config struct {
	unauthenticated func(*gin.Context)
}

// Option configures RequireIdentity.
type Option func(*config)

// WithUnauthenticatedHandler sets how anonymous requests are answered. The
// handler is responsible for writing the response; the chain is aborted
// afterwards either way.
func WithUnauthenticatedHandler(h func(*gin.Context)) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.unauthenticated = h
		}
	}
}
