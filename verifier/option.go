package verifier

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type httpConfig struct {
	baseURL *url.URL
	path    string
	client  *http.Client
	timeout time.Duration
}

// HTTPOption configures an HTTPVerifier.
// Options return errors to enable validation during construction.
type HTTPOption func(*httpConfig) error

// WithBaseURL sets the backend base URL. This is a required option.
func WithBaseURL(raw string) HTTPOption {
	return func(c *httpConfig) error {
		if raw == "" {
			return errors.New("base URL cannot be empty")
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL must be http or https, got %q", raw)
		}
		c.baseURL = u
		return nil
	}
}

// WithVerifyPath overrides the verification path.
//
// Default: DefaultVerifyPath
func WithVerifyPath(path string) HTTPOption {
	return func(c *httpConfig) error {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("verify path must start with '/', got %q", path)
		}
		c.path = path
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for verification calls.
//
// Default: http.DefaultClient
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		c.client = client
		return nil
	}
}

// WithTimeout bounds each verification call. Zero disables the per-call
// timeout and relies on the caller's context.
//
// Default: DefaultTimeout
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		c.timeout = d
		return nil
	}
}
