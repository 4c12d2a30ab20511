package sessionmiddleware

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// TrustedProxyConfig defines which reverse proxy headers to trust when
// rebuilding the path the browser originally asked for.
//
// SECURITY WARNING: Only enable when behind a trusted reverse proxy that
// strips client-provided forwarded headers.
//
// Secure by default: a nil config trusts nothing.
type TrustedProxyConfig struct {
	// TrustXForwardedPrefix enables the X-Forwarded-Prefix header (API
	// gateway path prefix).
	TrustXForwardedPrefix bool
}

// NextParam is the query parameter carrying the return path on the login
// redirect.
const NextParam = "next"

// OriginalPath returns the request path and query as the browser sent it,
// including a trusted gateway prefix.
func OriginalPath(r *http.Request, proxies *TrustedProxyConfig) string {
	p := r.URL.Path
	if p == "" {
		p = "/"
	}
	if proxies != nil && proxies.TrustXForwardedPrefix {
		if prefix := leftmost(r.Header.Get("X-Forwarded-Prefix")); prefix != "" {
			p = path.Join("/", prefix, p)
		}
	}
	if r.URL.RawQuery != "" {
		p += "?" + r.URL.RawQuery
	}
	return p
}

// LoginLocation builds the login redirect target for r.
func LoginLocation(r *http.Request, loginPath string, proxies *TrustedProxyConfig) string {
	u, err := url.Parse(loginPath)
	if err != nil {
		return loginPath
	}
	q := u.Query()
	q.Set(NextParam, OriginalPath(r, proxies))
	u.RawQuery = q.Encode()
	return u.String()
}

// leftmost returns the first value of a comma separated header, which is the
// one closest to the client in a multi-proxy chain.
func leftmost(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
