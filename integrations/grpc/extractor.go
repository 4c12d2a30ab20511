package sessiongrpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// TokenExtractor extracts the session token from incoming call metadata.
// An absent token is "", nil; an error means a token was offered in a
// malformed way.
type TokenExtractor func(ctx context.Context) (string, error)

// Extractor errors
var (
	// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
	ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

	// ErrInvalidAuthFormat indicates the authorization metadata format is invalid.
	ErrInvalidAuthFormat = errors.New("invalid authorization metadata format, expected: Bearer <token>")
)

// MetadataTokenExtractor extracts the token from the "authorization" metadata
// key in "Bearer <token>" form. gRPC lowercases incoming keys.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return "", nil
	}
	if len(authHeaders) > 1 {
		return "", ErrMultipleAuthHeaders
	}

	parts := strings.Fields(authHeaders[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}

// CookieTokenExtractor reads the named session cookie from the "cookie"
// metadata a gateway forwards from the browser request.
func CookieTokenExtractor(name string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}
		for _, line := range md.Get("cookie") {
			cookies, err := http.ParseCookie(line)
			if err != nil {
				continue
			}
			for _, c := range cookies {
				if c.Name == name {
					return c.Value, nil
				}
			}
		}
		return "", nil
	}
}

// MultiTokenExtractor returns the first non-empty token. An error from any
// extractor is returned immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
