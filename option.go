package sessionmiddleware

import (
	"errors"
	"net/http"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/medistream/go-session-middleware/core"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithVerifier sets the verifier that checks session tokens (REQUIRED).
func WithVerifier(v core.Verifier) Option {
	return func(m *Middleware) error {
		if v == nil {
			return ErrVerifierNil
		}
		m.verifier = v
		return nil
	}
}

// WithCookieName reads the session token from the named cookie, falling back
// to a bearer Authorization header.
//
// Default: DefaultCookieName
func WithCookieName(name string) Option {
	return func(m *Middleware) error {
		if name == "" {
			return ErrCookieNameEmpty
		}
		m.tokenExtractor = DefaultTokenExtractor(name)
		return nil
	}
}

// WithTokenExtractor replaces the token extractor entirely.
//
// Default: DefaultTokenExtractor(DefaultCookieName)
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *Middleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithRetryUnavailable retries verification once when the authority could
// not be reached. Explicit rejections are never retried.
//
// Default: false
func WithRetryUnavailable(retry bool) Option {
	return func(m *Middleware) error {
		m.coreOpts = append(m.coreOpts, core.WithRetryUnavailable(retry))
		return nil
	}
}

// WithResolveOnOptions sets whether OPTIONS requests should be resolved.
//
// Default: true
func WithResolveOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.resolveOnOptions = value
		return nil
	}
}

// WithExclusionURLs configures URL patterns that skip session resolution.
// URLs can be full URLs or just paths.
func WithExclusionURLs(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithUnauthenticatedHandler sets how RequireIdentity answers anonymous
// requests.
//
// Default: DefaultUnauthenticatedHandler
func WithUnauthenticatedHandler(h UnauthenticatedHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrUnauthenticatedHandlerNil
		}
		m.unauthenticatedHandler = h
		return nil
	}
}

// WithLogger sets an optional logger for the middleware.
// The logger will be used throughout the resolution flow in both middleware and core.
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics records resolution outcomes.
func WithMetrics(metrics core.Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.coreOpts = append(m.coreOpts, core.WithMetrics(metrics))
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for resolution spans.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(m *Middleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.coreOpts = append(m.coreOpts, core.WithTracer(tracer))
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrVerifierNil               = errors.New("verifier cannot be nil (use WithVerifier)")
	ErrCookieNameEmpty           = errors.New("cookie name cannot be empty")
	ErrTokenExtractorNil         = errors.New("tokenExtractor cannot be nil")
	ErrExclusionURLsEmpty        = errors.New("exclusion URLs list cannot be empty")
	ErrUnauthenticatedHandlerNil = errors.New("unauthenticatedHandler cannot be nil")
	ErrLoggerNil                 = errors.New("logger cannot be nil")
	ErrMetricsNil                = errors.New("metrics cannot be nil")
	ErrTracerNil                 = errors.New("tracer cannot be nil")
)
