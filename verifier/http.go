package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medistream/go-session-middleware/core"
	"github.com/medistream/go-session-middleware/internal/requestid"
)

const (
	// DefaultVerifyPath is the verification endpoint relative to the base URL.
	DefaultVerifyPath = "/auth/verify"

	// DefaultTimeout bounds a single verification call.
	DefaultTimeout = 5 * time.Second

	// maxErrorBody caps how much of an error response is kept for logging.
	maxErrorBody = 1 << 10
)

// verifyResponse is the body returned by the verification endpoint. Fields
// other than user_id and role are ignored.
type verifyResponse struct {
	UserID string    `json:"user_id"`
	Role   core.Role `json:"role"`
}

// HTTPVerifier verifies tokens against the backend verification endpoint.
// It holds no mutable state and is safe for concurrent use.
type HTTPVerifier struct {
	endpoint *url.URL
	client   *http.Client
	timeout  time.Duration
}

// NewHTTPVerifier builds and returns a new *HTTPVerifier.
//
// Required options:
//   - WithBaseURL: backend base URL
//
// Example:
//
//	v, err := verifier.NewHTTPVerifier(
//	    verifier.WithBaseURL(os.Getenv("BACKEND_BASE_URL")),
//	    verifier.WithTimeout(2*time.Second),
//	)
func NewHTTPVerifier(opts ...HTTPOption) (*HTTPVerifier, error) {
	cfg := &httpConfig{
		path:    DefaultVerifyPath,
		timeout: DefaultTimeout,
		client:  http.DefaultClient,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if cfg.baseURL == nil {
		return nil, errors.New("base URL is required (use WithBaseURL)")
	}

	endpoint := cfg.baseURL.JoinPath(cfg.path)

	return &HTTPVerifier{
		endpoint: endpoint,
		client:   cfg.client,
		timeout:  cfg.timeout,
	}, nil
}

// Endpoint returns the absolute verification URL.
func (v *HTTPVerifier) Endpoint() string {
	return v.endpoint.String()
}

// Verify implements core.Verifier.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*core.Identity, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint.String(), nil)
	if err != nil {
		return nil, core.NewVerificationError(core.KindUnavailable, 0, "could not build verify request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	res, err := v.client.Do(req)
	if err != nil {
		return nil, core.NewVerificationError(core.KindUnavailable, 0, "verify request failed", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, core.NewVerificationError(core.KindUnavailable, res.StatusCode, "verify endpoint failed", bodyError(res.Body))
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, core.NewVerificationError(core.KindRejected, res.StatusCode, "token rejected", bodyError(res.Body))
	}

	var body verifyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, core.NewVerificationError(core.KindRejected, res.StatusCode, "could not decode verify response", err)
	}
	if body.UserID == "" {
		return nil, core.NewVerificationError(core.KindRejected, res.StatusCode, "verify response has no user_id", nil)
	}

	return &core.Identity{
		UserID: body.UserID,
		Role:   core.Role(strings.ToUpper(string(body.Role))),
	}, nil
}

func bodyError(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	return errors.New(strings.TrimSpace(string(b)))
}
