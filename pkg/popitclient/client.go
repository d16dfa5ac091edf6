package popitclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/popit/internal/client"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// New creates a new PopIt API client. The config is copied; the caller's value
// is never modified.
func New(config *popit.Config) (popit.Client, error) {
	if config == nil {
		return nil, popit.ErrConfigRequired
	}

	normalized := *config
	normalizeHost(&normalized)

	client, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// normalizeHost accepts host names given as URLs: an https:// prefix turns on
// TLS, http:// is dropped, and a trailing slash is trimmed.
func normalizeHost(config *popit.Config) {
	host := strings.TrimSpace(config.HostName)

	switch {
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
		config.UseTLS = true
	case strings.HasPrefix(host, "http://"):
		host = strings.TrimPrefix(host, "http://")
	}

	config.HostName = strings.TrimSuffix(host, "/")
}

// NewWithInstance creates an unauthenticated client for the named instance on
// the default host. Such a client can only read.
func NewWithInstance(instanceName string) (popit.Client, error) {
	return New(&popit.Config{
		InstanceName: instanceName,
	})
}

// NewWithPassword creates a new client using HTTP Basic authentication.
func NewWithPassword(instanceName, username, password string) (popit.Client, error) {
	return New(&popit.Config{
		InstanceName: instanceName,
		Username:     username,
		Password:     password,
	})
}

// NewWithAPIKey creates a new client that sends an API key in the Apikey
// header.
func NewWithAPIKey(instanceName, apiKey string) (popit.Client, error) {
	return New(&popit.Config{
		InstanceName: instanceName,
		APIKey:       apiKey,
	})
}
