/*
Package core provides the framework-agnostic session resolver shared by the
net/http middleware and the Gin, Echo and gRPC adapters.

# Architecture

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│  (net/http, Gin, Echo, gRPC)                │
	└────────────────┬────────────────────────────┘
	                 │ raw token
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Core (THIS PACKAGE)                │
	│  • anonymous when no token                  │
	│  • fail-open on verification errors         │
	│  • optional single retry when unavailable   │
	└────────────────┬────────────────────────────┘
	                 │
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Verifier                           │
	│  (remote /auth/verify or local JWT check)   │
	└─────────────────────────────────────────────┘

# Basic Usage

	v, err := verifier.NewHTTPVerifier(verifier.WithBaseURL("http://backend:8080"))
	if err != nil {
	    log.Fatal(err)
	}

	c, err := core.New(core.WithVerifier(v))
	if err != nil {
	    log.Fatal(err)
	}

	id := c.Resolve(ctx, token) // nil when anonymous or not verifiable
	ctx = core.SetIdentity(ctx, id)

# Errors

Verifiers report failures as *VerificationError, which matches either
ErrRejected or ErrUnavailable:

	if errors.Is(err, core.ErrUnavailable) {
	    // the authority could not be reached
	}

Resolve itself never returns an error; outcomes are visible through the
configured Logger and Metrics.
*/
package core
