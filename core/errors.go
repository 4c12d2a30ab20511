package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for session verification.
var (
	// ErrRejected is returned when the identity authority explicitly refused
	// the token (expired, revoked, malformed).
	ErrRejected = errors.New("session rejected")

	// ErrUnavailable is returned when the token could not be verified at all
	// (transport failure, timeout, 5xx from the authority).
	ErrUnavailable = errors.New("session verification unavailable")

	// ErrIdentityNotFound is returned when no identity is stored in the context.
	ErrIdentityNotFound = errors.New("identity not found in context")
)

// Kind separates an explicit rejection from a failure to verify.
type Kind int

const (
	KindRejected Kind = iota
	KindUnavailable
)

func (k Kind) String() string {
	if k == KindUnavailable {
		return "unavailable"
	}
	return "rejected"
}

// VerificationError describes why a token could not be turned into an
// identity. It matches ErrRejected or ErrUnavailable through errors.Is,
// depending on its Kind.
type VerificationError struct {
	Kind Kind

	// StatusCode is the authority's HTTP status, or 0 when no response was
	// received.
	StatusCode int

	Message string
	Details error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Details != nil {
		return msg + ": " + e.Details.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *VerificationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrRejected and ErrUnavailable.
func (e *VerificationError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	}
	return false
}

// NewVerificationError creates a new VerificationError.
func NewVerificationError(kind Kind, statusCode int, message string, details error) *VerificationError {
	return &VerificationError{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Details:    details,
	}
}
