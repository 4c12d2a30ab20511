package sessionmiddleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medistream/go-session-middleware/core"
)

// Middleware resolves the caller's session once per request and stores the
// resulting identity in the request context.
type Middleware struct {
	core                   *core.Core
	tokenExtractor         TokenExtractor
	resolveOnOptions       bool
	exclusionURLHandler    ExclusionURLHandler
	unauthenticatedHandler UnauthenticatedHandler
	logger                 Logger

	// Temporary fields used during construction
	verifier core.Verifier
	coreOpts []core.Option
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should skip session resolution.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new Middleware instance with the supplied options.
//
// Example:
//
//	v, _ := verifier.NewHTTPVerifier(verifier.WithBaseURL(baseURL))
//	middleware, err := sessionmiddleware.New(
//	    sessionmiddleware.WithVerifier(v),
//	    sessionmiddleware.WithCookieName("access_token"),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		resolveOnOptions: true,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.verifier == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrVerifierNil)
	}

	m.applyDefaults()

	coreOpts := append([]core.Option{core.WithVerifier(m.verifier)}, m.coreOpts...)
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}
	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}
	m.core = c

	return m, nil
}

func (m *Middleware) applyDefaults() {
	if m.tokenExtractor == nil {
		m.tokenExtractor = DefaultTokenExtractor(DefaultCookieName)
	}
	if m.unauthenticatedHandler == nil {
		m.unauthenticatedHandler = DefaultUnauthenticatedHandler
	}
}

// IdentityFrom returns the identity resolved for the request carrying ctx.
func IdentityFrom(ctx context.Context) (*core.Identity, bool) {
	id, err := core.GetIdentity(ctx)
	return id, err == nil
}

// Resolve extracts the token from r and resolves it. It returns nil for
// anonymous requests and for every kind of extraction or verification
// failure. Framework adapters call this directly.
func (m *Middleware) Resolve(r *http.Request) *core.Identity {
	token, err := m.tokenExtractor(r)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to extract token from request, continuing anonymously",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
		}
		return nil
	}

	return m.core.Resolve(r.Context(), token)
}

// Skip reports whether r bypasses resolution entirely.
func (m *Middleware) Skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		return true
	}
	return !m.resolveOnOptions && r.Method == http.MethodOptions
}

// Handler resolves the session and always calls next. Requests with a
// verified session carry the identity in their context; all other requests
// continue anonymously.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skip(r) {
			if m.logger != nil {
				m.logger.Debug("skipping session resolution",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		if id := m.Resolve(r); id != nil {
			r = r.Clone(core.SetIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity wraps next so that anonymous requests are answered by the
// configured UnauthenticatedHandler instead. It must run after Handler.
func (m *Middleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !core.HasIdentity(r.Context()) {
			m.unauthenticatedHandler(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
