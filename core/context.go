package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	identityKey contextKey = iota
)

// GetIdentity retrieves the identity resolved for the current request.
// It returns ErrIdentityNotFound when the request is anonymous.
func GetIdentity(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok || id == nil {
		return nil, ErrIdentityNotFound
	}
	return id, nil
}

// SetIdentity stores the identity in the context. A nil identity leaves the
// context untouched.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

// HasIdentity checks if an identity exists in the context without retrieving it.
func HasIdentity(ctx context.Context) bool {
	_, err := GetIdentity(ctx)
	return err == nil
}
