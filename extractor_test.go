package sessionmiddleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_AuthHeaderTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		request   *http.Request
		wantToken string
		wantError string
	}{
		{
			name:    "empty / no header",
			request: &http.Request{},
		},
		{
			name:      "token in header",
			request:   &http.Request{Header: http.Header{"Authorization": []string{fmt.Sprintf("Bearer %s", "i-am-token")}}},
			wantToken: "i-am-token",
		},
		{
			name:      "lowercase scheme",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"bearer i-am-token"}}},
			wantToken: "i-am-token",
		},
		{
			name:      "no bearer",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"i-am-token"}}},
			wantError: "Authorization header format must be Bearer {token}",
		},
		{
			name:      "basic scheme",
			request:   &http.Request{Header: http.Header{"Authorization": []string{"Basic dXNlcjpwYXNz"}}},
			wantError: "Authorization header format must be Bearer {token}",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gotToken, gotError := AuthHeaderTokenExtractor(testCase.request)
			if testCase.wantError != "" {
				assert.EqualError(t, gotError, testCase.wantError)
			} else {
				assert.NoError(t, gotError)
			}
			assert.Equal(t, testCase.wantToken, gotToken)
		})
	}
}

func Test_CookieTokenExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		cookie    *http.Cookie
		wantToken string
	}{
		{
			name:      "token in cookie",
			cookie:    &http.Cookie{Name: "access_token", Value: "i-am-token"},
			wantToken: "i-am-token",
		},
		{
			name:   "no cookie",
			cookie: nil,
		},
		{
			name:   "other cookie only",
			cookie: &http.Cookie{Name: "token", Value: "legacy"},
		},
		{
			name:   "empty cookie",
			cookie: &http.Cookie{Name: "access_token"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if testCase.cookie != nil {
				req.AddCookie(testCase.cookie)
			}

			gotToken, err := CookieTokenExtractor(DefaultCookieName)(req)
			assert.NoError(t, err)
			assert.Equal(t, testCase.wantToken, gotToken)
		})
	}
}

func Test_MultiTokenExtractor(t *testing.T) {
	noopExtractor := func(r *http.Request) (string, error) {
		return "", nil
	}
	extractor := func(token string) TokenExtractor {
		return func(r *http.Request) (string, error) {
			return token, nil
		}
	}
	errExtractor := func(r *http.Request) (string, error) {
		return "", errors.New("extraction failure")
	}

	testCases := []struct {
		name       string
		extractors []TokenExtractor
		wantToken  string
		wantErr    string
	}{
		{name: "no extractors"},
		{name: "token from the first non-empty", extractors: []TokenExtractor{noopExtractor, extractor("first"), extractor("second")}, wantToken: "first"},
		{name: "all empty", extractors: []TokenExtractor{noopExtractor, noopExtractor}},
		{name: "error stops the chain", extractors: []TokenExtractor{noopExtractor, errExtractor, extractor("late")}, wantErr: "extraction failure"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gotToken, err := MultiTokenExtractor(testCase.extractors...)(&http.Request{})
			if testCase.wantErr != "" {
				assert.EqualError(t, err, testCase.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, testCase.wantToken, gotToken)
		})
	}
}

func Test_DefaultTokenExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: "token", Value: "legacy-cookie"})

	gotToken, err := DefaultTokenExtractor(DefaultCookieName)(req)
	assert.NoError(t, err)
	assert.Equal(t, "from-header", gotToken, "only the canonical cookie name is read")
}
