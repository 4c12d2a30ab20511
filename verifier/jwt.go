package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/medistream/go-session-middleware/core"
)

// JWTVerifier verifies backend-issued HS256 tokens locally.
type JWTVerifier struct {
	secret []byte
	skew   time.Duration
}

// NewJWTVerifier returns a JWTVerifier for the shared signing secret.
// skew is the allowed clock difference when checking exp and nbf.
func NewJWTVerifier(secret string, skew time.Duration) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("secret cannot be empty")
	}
	if skew < 0 {
		return nil, errors.New("skew cannot be negative")
	}
	return &JWTVerifier{secret: []byte(secret), skew: skew}, nil
}

// Verify implements core.Verifier. Every failure is a rejection: a local
// check cannot be unavailable.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*core.Identity, error) {
	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return nil, core.NewVerificationError(core.KindRejected, 0, "token not valid", err)
	}

	userID, err := stringClaim(parsed, "user_id")
	if err != nil {
		return nil, core.NewVerificationError(core.KindRejected, 0, "token has no user", err)
	}
	role, err := stringClaim(parsed, "role")
	if err != nil {
		return nil, core.NewVerificationError(core.KindRejected, 0, "token has no role", err)
	}

	return &core.Identity{
		UserID: userID,
		Role:   core.Role(strings.ToUpper(role)),
	}, nil
}

func stringClaim(t jwt.Token, name string) (string, error) {
	raw, ok := t.Get(name)
	if !ok {
		return "", fmt.Errorf("claim %q missing", name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("claim %q is not a non-empty string", name)
	}
	return s, nil
}
