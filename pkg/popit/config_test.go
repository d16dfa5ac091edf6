package popit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/popit/pkg/popit"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	config := popit.Config{InstanceName: "tttest"}.WithDefaults()

	assert.Equal(t, "popit.mysociety.org", config.HostName)
	assert.Equal(t, "v1", config.Version)
	assert.Equal(t, popit.APIKeyHeader, config.APIKeyPlacement)
	assert.Equal(t, popit.EnvelopeAuto, config.Envelope)
	assert.Equal(t, time.Second, config.RetryUnit)
	assert.Equal(t, 30*time.Second, config.HTTPTimeout)
	assert.NotEmpty(t, config.UserAgent)
	require.NotNil(t, config.Backoff)
	assert.Equal(t, 4*time.Second, config.Backoff(2))
}

func TestConfig_BaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config popit.Config
		want   string
	}{
		{
			name:   "defaults",
			config: popit.Config{InstanceName: "tttest"},
			want:   "http://tttest.popit.mysociety.org/api/v1",
		},
		{
			name:   "port",
			config: popit.Config{InstanceName: "tttest", HostName: "127.0.0.1.xip.io", Port: 3000},
			want:   "http://tttest.127.0.0.1.xip.io:3000/api/v1",
		},
		{
			name:   "tls and version",
			config: popit.Config{InstanceName: "tttest", UseTLS: true, Version: "v0.1"},
			want:   "https://tttest.popit.mysociety.org/api/v0.1",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, testCase.config.WithDefaults().BaseURL())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config popit.Config
		want   error
	}{
		{name: "valid", config: popit.Config{InstanceName: "tttest"}},
		{name: "basic", config: popit.Config{InstanceName: "tttest", Username: "u", Password: "p"}},
		{name: "api key", config: popit.Config{InstanceName: "tttest", APIKey: "k"}},
		{name: "missing instance", config: popit.Config{}, want: popit.ErrInstanceNameRequired},
		{name: "blank instance", config: popit.Config{InstanceName: "  "}, want: popit.ErrInstanceNameRequired},
		{name: "both schemes", config: popit.Config{InstanceName: "t", Username: "u", APIKey: "k"}, want: popit.ErrConflictingCredentials},
		{name: "password only", config: popit.Config{InstanceName: "t", Password: "p"}, want: popit.ErrPasswordWithoutUsername},
		{name: "bad placement", config: popit.Config{InstanceName: "t", APIKeyPlacement: "cookie"}, want: popit.ErrInvalidAPIKeyPlacement},
		{name: "bad envelope", config: popit.Config{InstanceName: "t", Envelope: "always"}, want: popit.ErrInvalidEnvelopeMode},
		{name: "bad version", config: popit.Config{InstanceName: "t", Version: "latest"}, want: popit.ErrInvalidVersion},
		{name: "negative retries", config: popit.Config{InstanceName: "t", MaxRetries: -1}, want: popit.ErrNegativeRetries},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := testCase.config.Validate()
			if testCase.want == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, testCase.want)
		})
	}
}

func TestConfig_AuthScheme(t *testing.T) {
	t.Parallel()

	assert.Equal(t, popit.AuthNone, popit.Config{}.AuthScheme())
	assert.Equal(t, popit.AuthBasic, popit.Config{Username: "u", Password: "p"}.AuthScheme())
	assert.Equal(t, popit.AuthAPIKey, popit.Config{APIKey: "k"}.AuthScheme())
}

func TestSquareBackoff(t *testing.T) {
	t.Parallel()

	backoff := popit.SquareBackoff(time.Second)

	for attempt, want := range []time.Duration{0, time.Second, 4 * time.Second, 9 * time.Second} {
		assert.Equal(t, want, backoff(attempt))
	}
}

func TestConfig_UnwrapsEnvelopes(t *testing.T) {
	t.Parallel()

	assert.True(t, popit.Config{}.UnwrapsEnvelopes())
	assert.True(t, popit.Config{Envelope: popit.EnvelopeAuto}.UnwrapsEnvelopes())
	assert.False(t, popit.Config{Envelope: popit.EnvelopeNone}.UnwrapsEnvelopes())
	assert.True(t, popit.Config{Envelope: popit.EnvelopeVersion, Version: "v0.1"}.UnwrapsEnvelopes())
	assert.False(t, popit.Config{Envelope: popit.EnvelopeVersion, Version: "v1"}.UnwrapsEnvelopes())
}
