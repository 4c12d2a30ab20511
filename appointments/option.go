package appointments

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL sets the backend base URL (REQUIRED).
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL must use http or https, got %q", raw)
		}
		if u.Host == "" {
			return fmt.Errorf("base URL has no host: %q", raw)
		}
		if u.Path == "" {
			u.Path = "/"
		}
		u.RawQuery = ""
		u.Fragment = ""
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for backend calls.
//
// Default: an *http.Client with DefaultTimeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// on a client supplied through WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(l Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// WithMetrics records one observation per call.
func WithMetrics(m Metrics) Option {
	return func(c *Client) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for call spans.
func WithTracer(t oteltrace.Tracer) Option {
	return func(c *Client) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = t
		return nil
	}
}
