package portal

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/internal/ratelimit"
)

// Option configures the Server.
type Option func(*Server) error

// WithLoginPath sets where anonymous page requests are redirected.
func WithLoginPath(path string) Option {
	return func(s *Server) error {
		if !strings.HasPrefix(path, "/") {
			return errors.New("login path must start with /")
		}
		s.loginPath = path
		return nil
	}
}

// WithTrustedProxies sets which forwarded headers are honored when building
// the login redirect's return path.
func WithTrustedProxies(cfg *sessionmiddleware.TrustedProxyConfig) Option {
	return func(s *Server) error {
		s.proxies = cfg
		return nil
	}
}

// WithClientIPProxies lists the proxy addresses or CIDRs whose
// X-Forwarded-For header is believed when keying the rate limiter.
//
// Default: none, the peer address is the client.
func WithClientIPProxies(proxies ...string) Option {
	return func(s *Server) error {
		if len(proxies) == 0 {
			return errors.New("client IP proxies list cannot be empty")
		}
		s.clientProxies = proxies
		return nil
	}
}

// WithCORSOrigins enables CORS for the given browser origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.corsOrigins = origins
		return nil
	}
}

// WithRateLimiter limits the mutation routes per client.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) error {
		if l == nil {
			return errors.New("rate limiter cannot be nil")
		}
		s.limiter = l
		return nil
	}
}

// WithGatherer sets the registry served on /metrics.
//
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) error {
		if g == nil {
			return errors.New("gatherer cannot be nil")
		}
		s.gatherer = g
		return nil
	}
}

// WithLogger sets the logger for access logs and the loader.
func WithLogger(l sessionmiddleware.Logger) Option {
	return func(s *Server) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = l
		return nil
	}
}
