package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medistream/go-session-middleware/core"
	"github.com/medistream/go-session-middleware/internal/requestid"
)

func TestNewHTTPVerifier(t *testing.T) {
	testCases := []struct {
		name      string
		opts      []HTTPOption
		wantURL   string
		wantError string
	}{
		{
			name:    "default path",
			opts:    []HTTPOption{WithBaseURL("http://backend:8080")},
			wantURL: "http://backend:8080/auth/verify",
		},
		{
			name:    "base URL with prefix and custom path",
			opts:    []HTTPOption{WithBaseURL("https://api.example.com/v1/"), WithVerifyPath("/session/check")},
			wantURL: "https://api.example.com/v1/session/check",
		},
		{
			name:      "missing base URL",
			wantError: "base URL is required (use WithBaseURL)",
		},
		{
			name:      "non http scheme",
			opts:      []HTTPOption{WithBaseURL("ftp://backend")},
			wantError: `invalid option: base URL must be http or https, got "ftp://backend"`,
		},
		{
			name:      "relative verify path",
			opts:      []HTTPOption{WithBaseURL("http://backend"), WithVerifyPath("auth/verify")},
			wantError: `invalid option: verify path must start with '/', got "auth/verify"`,
		},
		{
			name:      "negative timeout",
			opts:      []HTTPOption{WithBaseURL("http://backend"), WithTimeout(-time.Second)},
			wantError: "invalid option: timeout cannot be negative",
		},
		{
			name:      "nil client",
			opts:      []HTTPOption{WithBaseURL("http://backend"), WithHTTPClient(nil)},
			wantError: "invalid option: http client cannot be nil",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v, err := NewHTTPVerifier(testCase.opts...)
			if testCase.wantError != "" {
				assert.EqualError(t, err, testCase.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.wantURL, v.Endpoint())
		})
	}
}

func TestHTTPVerifier_Verify(t *testing.T) {
	const token = "header.payload.signature"

	t.Run("accepted token returns the identity", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/auth/verify", r.URL.Path)
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			assert.Equal(t, "req-42", r.Header.Get(requestid.Header))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"token is valid","user_id":"p-1","role":"patient","expires":1700000000}`))
		}))
		defer server.Close()

		v, err := NewHTTPVerifier(WithBaseURL(server.URL))
		require.NoError(t, err)

		ctx := requestid.WithID(context.Background(), "req-42")
		id, err := v.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, &core.Identity{UserID: "p-1", Role: core.RolePatient}, id)
	})

	testCases := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, wantKind: core.ErrRejected},
		{name: "forbidden", status: http.StatusForbidden, wantKind: core.ErrRejected},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantKind: core.ErrUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, wantKind: core.ErrUnavailable},
		{name: "ok but garbage", status: http.StatusOK, body: "not json", wantKind: core.ErrRejected},
		{name: "ok without user", status: http.StatusOK, body: `{"role":"ADMIN"}`, wantKind: core.ErrRejected},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			}))
			defer server.Close()

			v, err := NewHTTPVerifier(WithBaseURL(server.URL))
			require.NoError(t, err)

			id, err := v.Verify(context.Background(), token)
			assert.Nil(t, id)
			assert.ErrorIs(t, err, testCase.wantKind)
		})
	}

	t.Run("connection failure is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		v, err := NewHTTPVerifier(WithBaseURL(url))
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrUnavailable)
	})

	t.Run("slow endpoint times out as unavailable", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		v, err := NewHTTPVerifier(WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("each call is a single request", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		v, err := NewHTTPVerifier(WithBaseURL(server.URL))
		require.NoError(t, err)

		_, _ = v.Verify(context.Background(), token)
		assert.EqualValues(t, 1, hits.Load())
	})
}
