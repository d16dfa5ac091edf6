package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/popit/internal/auth"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

func newRequest(t *testing.T, rawURL string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, rawURL, nil)
	require.NoError(t, err)

	return req
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config popit.Config
		scheme popit.AuthScheme
	}{
		{name: "no credentials", config: popit.Config{}, scheme: popit.AuthNone},
		{name: "username and password", config: popit.Config{Username: "jane", Password: "secret"}, scheme: popit.AuthBasic},
		{name: "api key", config: popit.Config{APIKey: "k"}, scheme: popit.AuthAPIKey},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.scheme, auth.New(testCase.config).Scheme())
		})
	}
}

func TestBasicAuthenticator(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "http://x.example.com/api/v1/persons")
	auth.New(popit.Config{Username: "jane", Password: "secret"}).Apply(req)

	username, password, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "jane", username)
	assert.Equal(t, "secret", password)
}

func TestAPIKeyAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("header placement", func(t *testing.T) {
		t.Parallel()

		req := newRequest(t, "http://x.example.com/api/v1/persons")
		auth.New(popit.Config{APIKey: "abc", APIKeyPlacement: popit.APIKeyHeader}).Apply(req)

		assert.Equal(t, "abc", req.Header.Get("Apikey"))
		assert.Empty(t, req.URL.Query().Get("apikey"))
	})

	t.Run("query placement keeps existing parameters", func(t *testing.T) {
		t.Parallel()

		req := newRequest(t, "http://x.example.com/api/v1/persons?name=John")
		auth.New(popit.Config{APIKey: "abc", APIKeyPlacement: popit.APIKeyQuery}).Apply(req)

		assert.Equal(t, "abc", req.URL.Query().Get("apikey"))
		assert.Equal(t, "John", req.URL.Query().Get("name"))
		assert.Empty(t, req.Header.Get("Apikey"))
	})
}

func TestNoneAuthenticator(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "http://x.example.com/api/v1/persons")
	auth.New(popit.Config{}).Apply(req)

	_, _, ok := req.BasicAuth()
	assert.False(t, ok)
	assert.Empty(t, req.Header.Get("Apikey"))
}
