// Package auth attaches PopIt credentials to outgoing requests.
package auth

import (
	"net/http"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// Authenticator adds credentials to a request.
type Authenticator interface {
	Apply(req *http.Request)
	Scheme() popit.AuthScheme
}

// New returns the authenticator selected by config. Config must already be
// validated; conflicting credentials are rejected by popit.Config.Validate.
func New(config popit.Config) Authenticator {
	switch config.AuthScheme() {
	case popit.AuthBasic:
		return &BasicAuthenticator{Username: config.Username, Password: config.Password}
	case popit.AuthAPIKey:
		return &APIKeyAuthenticator{Key: config.APIKey, Placement: config.APIKeyPlacement}
	default:
		return NoneAuthenticator{}
	}
}

// BasicAuthenticator sends HTTP Basic credentials.
type BasicAuthenticator struct {
	Username string
	Password string
}

func (a *BasicAuthenticator) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

func (a *BasicAuthenticator) Scheme() popit.AuthScheme {
	return popit.AuthBasic
}

// APIKeyAuthenticator sends an API key as a header or query parameter.
type APIKeyAuthenticator struct {
	Key       string
	Placement popit.APIKeyPlacement
}

func (a *APIKeyAuthenticator) Apply(req *http.Request) {
	if a.Placement == popit.APIKeyQuery {
		query := req.URL.Query()
		query.Set(constants.QueryAPIKey, a.Key)
		req.URL.RawQuery = query.Encode()

		return
	}

	req.Header.Set(constants.HeaderAPIKey, a.Key)
}

func (a *APIKeyAuthenticator) Scheme() popit.AuthScheme {
	return popit.AuthAPIKey
}

// NoneAuthenticator leaves requests untouched.
type NoneAuthenticator struct{}

func (NoneAuthenticator) Apply(*http.Request) {}

func (NoneAuthenticator) Scheme() popit.AuthScheme {
	return popit.AuthNone
}
