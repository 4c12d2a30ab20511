/*
Package sessionmiddleware resolves the portal session for net/http servers.

Every request passes through the middleware exactly once. The session token is
read from the access_token cookie (or a bearer Authorization header for API
callers) and handed to a core.Verifier. A verified session puts a
*core.Identity into the request context; anything else, including an
unreachable authority, leaves the request anonymous. The middleware never
answers a request on its own.

# Quick Start

	v, err := verifier.NewHTTPVerifier(
	    verifier.WithBaseURL("http://localhost:8080"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := sessionmiddleware.New(
	    sessionmiddleware.WithVerifier(v),
	)
	if err != nil {
	    log.Fatal(err)
	}

	http.Handle("/", middleware.Handler(pageHandler))

# Reading the identity

	func pageHandler(w http.ResponseWriter, r *http.Request) {
	    id, ok := sessionmiddleware.IdentityFrom(r.Context())
	    if !ok {
	        // anonymous visitor
	    }
	    fmt.Fprintf(w, "hello %s (%s)", id.UserID, id.Role)
	}

Routes that need a session wrap their handler with RequireIdentity, which
answers anonymous requests with a 401 by default or with a login redirect when
configured through WithUnauthenticatedHandler(RedirectToLogin(...)).

# Failure handling

Verification failures come in two kinds. A rejection means the authority
looked at the token and refused it. Unavailability means it could not be asked
(connection error, timeout, 5xx). Both resolve to an anonymous request, but
they are logged and counted separately, and WithRetryUnavailable retries the
second kind once.

Framework adapters for gin and echo live under framework/, and a gRPC
interceptor under integrations/grpc.
*/
package sessionmiddleware
