package sessiongrpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"

	"github.com/medistream/go-session-middleware/core"
)

// SessionInterceptor resolves the session for gRPC servers.
type SessionInterceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	requiredMethods map[string]bool
	logger          Logger

	// Temporary fields used during construction
	verifier core.Verifier
	coreOpts []core.Option
}

// New creates a new SessionInterceptor. WithVerifier is required.
func New(opts ...Option) (*SessionInterceptor, error) {
	i := &SessionInterceptor{
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		requiredMethods: make(map[string]bool),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if i.verifier == nil {
		return nil, errors.New("verifier is required, use WithVerifier option")
	}

	c, err := core.New(append([]core.Option{core.WithVerifier(i.verifier)}, i.coreOpts...)...)
	if err != nil {
		return nil, err
	}
	i.core = c

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that resolves
// the session before calling the handler.
func (i *SessionInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := i.resolve(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that resolves
// the session and exposes it through the stream context.
func (i *SessionInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := i.resolve(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

func (i *SessionInterceptor) resolve(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata, continuing anonymously",
				"error", err,
				"method", method)
		}
		token = ""
	}

	if id := i.core.Resolve(ctx, token); id != nil {
		return core.SetIdentity(ctx, id), nil
	}

	if i.requiredMethods[method] {
		if i.logger != nil {
			i.logger.Debug("refusing anonymous call to a required method",
				"method", method)
		}
		return ctx, i.errorHandler(ErrIdentityRequired)
	}
	return ctx, nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with the identity.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
