package sessiongrpc

import (
	"errors"

	"github.com/medistream/go-session-middleware/core"
)

// Option configures the SessionInterceptor.
type Option func(*SessionInterceptor) error

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// WithVerifier sets the session verifier (REQUIRED).
func WithVerifier(v core.Verifier) Option {
	return func(i *SessionInterceptor) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		i.verifier = v
		return nil
	}
}

// WithTokenExtractor replaces the default metadata extractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *SessionInterceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithExcludedMethods skips resolution for the given full method names
// (e.g. "/grpc.health.v1.Health/Check").
func WithExcludedMethods(methods ...string) Option {
	return func(i *SessionInterceptor) error {
		for _, m := range methods {
			i.excludedMethods[m] = true
		}
		return nil
	}
}

// WithRequiredMethods refuses anonymous calls to the given full method names.
func WithRequiredMethods(methods ...string) Option {
	return func(i *SessionInterceptor) error {
		for _, m := range methods {
			i.requiredMethods[m] = true
		}
		return nil
	}
}

// WithErrorHandler sets how refused calls are answered.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *SessionInterceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithRetryUnavailable retries verification once when the authority could
// not be reached.
func WithRetryUnavailable(retry bool) Option {
	return func(i *SessionInterceptor) error {
		i.coreOpts = append(i.coreOpts, core.WithRetryUnavailable(retry))
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor and its core.
func WithLogger(logger Logger) Option {
	return func(i *SessionInterceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		i.coreOpts = append(i.coreOpts, core.WithLogger(logger))
		return nil
	}
}

// WithMetrics records resolution outcomes.
func WithMetrics(metrics core.Metrics) Option {
	return func(i *SessionInterceptor) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		i.coreOpts = append(i.coreOpts, core.WithMetrics(metrics))
		return nil
	}
}
