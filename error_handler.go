package sessionmiddleware

import (
	"net/http"
)

// UnauthenticatedHandler answers a request that needs an identity but has
// none. Anonymous requests are never an error inside the middleware; this
// handler is only consulted by RequireIdentity.
type UnauthenticatedHandler func(w http.ResponseWriter, r *http.Request)

// DefaultUnauthenticatedHandler responds with 401 and a JSON message. It
// suits API routes; page routes usually want RedirectToLogin.
func DefaultUnauthenticatedHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Authentication required."}`))
}

// RedirectToLogin returns an UnauthenticatedHandler that sends the browser to
// loginPath with a 302, remembering where it came from.
func RedirectToLogin(loginPath string, proxies *TrustedProxyConfig) UnauthenticatedHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LoginLocation(r, loginPath, proxies), http.StatusFound)
	}
}
