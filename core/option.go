package core

import (
	"errors"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used when no tracer is configured.
const TracerName = "github.com/medistream/go-session-middleware/core"

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// The Core must be configured with a Verifier using WithVerifier.
//
// Example:
//
//	c, err := core.New(
//	    core.WithVerifier(v),
//	    core.WithRetryUnavailable(true),
//	    core.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.verifier == nil {
		return nil, errors.New("verifier is required but not set (use WithVerifier option)")
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}

	return c, nil
}

// WithVerifier sets the verifier used to check tokens. Required.
func WithVerifier(v Verifier) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		c.verifier = v
		return nil
	}
}

// WithRetryUnavailable makes Resolve retry exactly once when the verifier
// reports ErrUnavailable. Explicit rejections are never retried.
//
// Default: false
func WithRetryUnavailable(retry bool) Option {
	return func(c *Core) error {
		c.retryUnavailable = retry
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets an optional metrics sink for resolution outcomes.
func WithMetrics(m Metrics) Option {
	return func(c *Core) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used for the resolve span.
//
// Default: otel.Tracer(TracerName) from the global provider.
func WithTracer(t oteltrace.Tracer) Option {
	return func(c *Core) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = t
		return nil
	}
}
