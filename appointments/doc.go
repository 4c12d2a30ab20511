// Package appointments is a typed client for the backend appointment API.
//
// Each Client method performs exactly one remote call and returns the decoded
// response body. The client does not validate payloads, retry, or cache; the
// backend owns the appointment lifecycle. Status.Terminal and
// ValidateTransition expose the one rule callers may enforce locally: a
// CANCELLED appointment accepts no further status change.
package appointments
