package sessionmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medistream/go-session-middleware/core"
)

type fakeVerifier struct {
	mu     sync.Mutex
	tokens []string
	id     *core.Identity
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	if f.id == nil {
		return nil, nil
	}
	id := *f.id
	return &id, nil
}

func (f *fakeVerifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// identityEcho writes whatever identity reached the handler.
var identityEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		_, _ = w.Write([]byte(`null`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"user_id": id.UserID, "role": string(id.Role), "token": id.Token})
})

func Test_Handler(t *testing.T) {
	doctor := &core.Identity{UserID: "d-1", Role: core.RoleDoctor}

	testCases := []struct {
		name       string
		verifier   *fakeVerifier
		options    []Option
		cookieName string
		method    string
		path      string
		cookie    string
		header    string
		wantBody  map[string]string
		wantCalls int
	}{
		{
			name:      "no token resolves anonymous without calling the verifier",
			verifier:  &fakeVerifier{id: doctor},
			method:    http.MethodGet,
			wantCalls: 0,
		},
		{
			name:      "cookie token resolves identity",
			verifier:  &fakeVerifier{id: doctor},
			method:    http.MethodGet,
			cookie:    "tok-1",
			wantBody:  map[string]string{"user_id": "d-1", "role": "DOCTOR", "token": "tok-1"},
			wantCalls: 1,
		},
		{
			name:      "bearer header is used when there is no cookie",
			verifier:  &fakeVerifier{id: doctor},
			method:    http.MethodGet,
			header:    "Bearer tok-2",
			wantBody:  map[string]string{"user_id": "d-1", "role": "DOCTOR", "token": "tok-2"},
			wantCalls: 1,
		},
		{
			name:      "cookie wins over header",
			verifier:  &fakeVerifier{id: doctor},
			method:    http.MethodGet,
			cookie:    "from-cookie",
			header:    "Bearer from-header",
			wantBody:  map[string]string{"user_id": "d-1", "role": "DOCTOR", "token": "from-cookie"},
			wantCalls: 1,
		},
		{
			name:      "malformed header continues anonymously",
			verifier:  &fakeVerifier{id: doctor},
			method:    http.MethodGet,
			header:    "Basic abc",
			wantCalls: 0,
		},
		{
			name:      "rejected token continues anonymously",
			verifier:  &fakeVerifier{err: core.NewVerificationError(core.KindRejected, 401, "session rejected", nil)},
			method:    http.MethodGet,
			cookie:    "stale",
			wantCalls: 1,
		},
		{
			name:      "unavailable authority continues anonymously",
			verifier:  &fakeVerifier{err: core.NewVerificationError(core.KindUnavailable, 503, "authority unavailable", nil)},
			method:    http.MethodGet,
			cookie:    "tok",
			wantCalls: 1,
		},
		{
			name:      "options requests are skipped when configured",
			verifier:  &fakeVerifier{id: doctor},
			options:   []Option{WithResolveOnOptions(false)},
			method:    http.MethodOptions,
			cookie:    "tok",
			wantCalls: 0,
		},
		{
			name:      "excluded path is skipped",
			verifier:  &fakeVerifier{id: doctor},
			options:   []Option{WithExclusionURLs([]string{"/healthz"})},
			method:    http.MethodGet,
			path:      "/healthz",
			cookie:    "tok",
			wantCalls: 0,
		},
		{
			name:      "custom cookie name",
			verifier:  &fakeVerifier{id: doctor},
			options:    []Option{WithCookieName("sid")},
			cookieName: "sid",
			method:     http.MethodGet,
			cookie:     "tok-sid",
			wantBody:  map[string]string{"user_id": "d-1", "role": "DOCTOR", "token": "tok-sid"},
			wantCalls: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cookieName := testCase.cookieName
			if cookieName == "" {
				cookieName = DefaultCookieName
			}

			opts := append([]Option{WithVerifier(testCase.verifier)}, testCase.options...)
			m, err := New(opts...)
			require.NoError(t, err)

			path := testCase.path
			if path == "" {
				path = "/appointments"
			}
			req := httptest.NewRequest(testCase.method, path, nil)
			if testCase.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookieName, Value: testCase.cookie})
			}
			if testCase.header != "" {
				req.Header.Set("Authorization", testCase.header)
			}
			rec := httptest.NewRecorder()

			m.Handler(identityEcho).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, testCase.wantCalls, testCase.verifier.calls())

			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			if diff := cmp.Diff(testCase.wantBody, got); diff != "" {
				t.Errorf("identity mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_HandlerResolvesOncePerRequest(t *testing.T) {
	v := &fakeVerifier{id: &core.Identity{UserID: "p-1", Role: core.RolePatient}}
	m, err := New(WithVerifier(v))
	require.NoError(t, err)

	handler := m.Handler(m.RequireIdentity(identityEcho))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok"})
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 3, v.calls())
}

func Test_RequireIdentity(t *testing.T) {
	v := &fakeVerifier{id: &core.Identity{UserID: "p-1", Role: core.RolePatient}}

	t.Run("anonymous gets 401 by default", func(t *testing.T) {
		m, err := New(WithVerifier(v))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		m.Handler(m.RequireIdentity(identityEcho)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Authentication required."}`, rec.Body.String())
	})

	t.Run("anonymous is redirected when configured", func(t *testing.T) {
		m, err := New(WithVerifier(v), WithUnauthenticatedHandler(RedirectToLogin("/login", nil)))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		m.Handler(m.RequireIdentity(identityEcho)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments?page=2", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?next=%2Fappointments%3Fpage%3D2", rec.Header().Get("Location"))
	})

	t.Run("authenticated passes through", func(t *testing.T) {
		m, err := New(WithVerifier(v))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok"})
		rec := httptest.NewRecorder()
		m.Handler(m.RequireIdentity(identityEcho)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":"p-1","role":"PATIENT","token":"tok"}`, rec.Body.String())
	})
}
