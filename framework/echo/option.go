package sessionecho

import (
	"github.com/labstack/echo/v4"
)

type config struct {
	unauthenticated echo.HandlerFunc
}

// Option configures RequireIdentity.
type Option func(*config)

// WithUnauthenticatedHandler sets how anonymous requests are answered.
func WithUnauthenticatedHandler(h echo.HandlerFunc) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.unauthenticated = h
		}
	}
}
