// Package core provides the framework-agnostic session resolution engine that
// turns a raw credential into an Identity for the lifetime of one request.
//
// The Core type owns the resolution policy (no token means no identity, a
// failed verification means no identity) and delegates the actual check to a
// Verifier. Transport adapters (net/http, Gin, Echo, gRPC) wrap the Core.
package core

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Verifier checks a raw token with the identity authority and returns the
// identity it belongs to. The returned Identity does not need to carry the
// token; Core merges it in.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Logger defines an optional logging interface for the core resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives resolution outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
}

// Metric names emitted by Core.
const (
	MetricResolutions        = "session_resolutions_total"
	MetricResolutionDuration = "session_resolution_duration_seconds"
)

// Resolution outcomes, used as the "outcome" metric tag and log field.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
	OutcomeUnavailable   = "unavailable"
)

// Core is the framework-agnostic session resolver.
type Core struct {
	verifier         Verifier
	retryUnavailable bool
	logger           Logger
	metrics          Metrics
	tracer           oteltrace.Tracer
}

// Resolve turns a raw token into an Identity.
//
// Resolve never fails: an empty token yields nil without contacting the
// verifier, and any verification failure (rejection, transport error,
// timeout) is logged and also yields nil. The returned identity's Token is
// always the token that was passed in.
func (c *Core) Resolve(ctx context.Context, token string) *Identity {
	if token == "" {
		if c.logger != nil {
			c.logger.Debug("no token provided, continuing anonymously")
		}
		c.count(OutcomeAnonymous)
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "session.resolve")
	defer span.End()

	start := time.Now()
	id, err := c.verifier.Verify(ctx, token)
	if err != nil && c.retryUnavailable && errors.Is(err, ErrUnavailable) {
		if c.logger != nil {
			c.logger.Debug("verification unavailable, retrying once", "error", err)
		}
		span.AddEvent("retry")
		id, err = c.verifier.Verify(ctx, token)
	}
	duration := time.Since(start)

	if err == nil && id == nil {
		err = NewVerificationError(KindRejected, 0, "verifier returned no identity", nil)
	}

	if err != nil {
		outcome := classify(err)
		if c.logger != nil {
			c.logger.Warn("session verification failed, treating request as unauthenticated",
				"outcome", outcome,
				"error", err,
				"duration", duration)
		}
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("session.outcome", outcome))
		c.count(outcome)
		c.observe(outcome, duration)
		return nil
	}

	identity := &Identity{
		UserID: id.UserID,
		Role:   id.Role,
		Token:  token,
	}

	if c.logger != nil {
		c.logger.Debug("session verified",
			"user_id", identity.UserID,
			"role", string(identity.Role),
			"duration", duration)
	}
	span.SetAttributes(
		attribute.String("session.outcome", OutcomeAuthenticated),
		attribute.String("session.role", string(identity.Role)),
	)
	c.count(OutcomeAuthenticated)
	c.observe(OutcomeAuthenticated, duration)

	return identity
}

func (c *Core) count(outcome string) {
	if c.metrics != nil {
		c.metrics.IncCounter(MetricResolutions, map[string]string{"outcome": outcome})
	}
}

func (c *Core) observe(outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveHistogram(MetricResolutionDuration, d.Seconds(), map[string]string{"outcome": outcome})
	}
}

func classify(err error) string {
	if errors.Is(err, ErrUnavailable) {
		return OutcomeUnavailable
	}
	return OutcomeRejected
}
