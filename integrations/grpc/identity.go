package sessiongrpc

import (
	"context"

	"github.com/medistream/go-session-middleware/core"
)

// GetIdentity returns the identity resolved for the call.
func GetIdentity(ctx context.Context) (*core.Identity, error) {
	return core.GetIdentity(ctx)
}

// HasIdentity reports whether the call carries a resolved identity.
func HasIdentity(ctx context.Context) bool {
	return core.HasIdentity(ctx)
}
