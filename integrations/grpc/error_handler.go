package sessiongrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrIdentityRequired is passed to the ErrorHandler when a required method is
// called anonymously.
var ErrIdentityRequired = errors.New("identity required")

// ErrorHandler converts a refusal into the error returned to the client.
type ErrorHandler func(error) error

// DefaultErrorHandler answers refused calls with codes.Unauthenticated.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIdentityRequired) {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	return status.Error(codes.Internal, err.Error())
}
