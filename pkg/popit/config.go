package popit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/popit/internal/constants"
)

// APIKeyPlacement selects how an API key travels with a request.
type APIKeyPlacement string

const (
	// APIKeyHeader sends the key in the Apikey header.
	APIKeyHeader APIKeyPlacement = "header"
	// APIKeyQuery sends the key as the apikey query parameter.
	APIKeyQuery APIKeyPlacement = "query"
)

// EnvelopeMode selects how {"result": ...} envelopes are handled.
type EnvelopeMode string

const (
	// EnvelopeAuto unwraps a top-level object's "result" or "results" member
	// when present and passes every other body through.
	EnvelopeAuto EnvelopeMode = "auto"
	// EnvelopeNone returns bodies exactly as the server sent them.
	EnvelopeNone EnvelopeMode = "none"
	// EnvelopeVersion unwraps only for API versions below 1.0.
	EnvelopeVersion EnvelopeMode = "version"
)

// AuthScheme is the credential scheme selected by a Config.
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthBasic  AuthScheme = "basic"
	AuthAPIKey AuthScheme = "apikey"
)

// BackoffFunc returns the delay before retry attempt n, counting from zero.
type BackoffFunc func(attempt int) time.Duration

// SquareBackoff waits attempt² units before each retry: 0, 1, 4, 9, ...
func SquareBackoff(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt*attempt) * unit
	}
}

// Config represents client configuration for building a popit.Client.
//
// # Authentication
//
// Exactly one scheme is active per client and it is chosen from the populated
// fields: Username/Password selects HTTP Basic, APIKey selects the API key
// scheme, and neither leaves requests unauthenticated. Setting both is a
// configuration error. Credentials are attached to POST, PUT and DELETE;
// GET requests are always sent without them.
//
// # Retries
//
// MaxRetries bounds how many times a 503 response is retried. The default of
// zero fails on the first 503. Backoff defaults to SquareBackoff(RetryUnit).
type Config struct {
	// Required fields
	// InstanceName is the PopIt instance, the first DNS label of the base URL.
	InstanceName string

	// HostName is the PopIt host, e.g. "popit.mysociety.org". A leading
	// "https://" enables UseTLS.
	HostName string
	// Port is omitted from the base URL when zero.
	Port int
	// Version is the API version path segment, e.g. "v1".
	Version string
	// UseTLS switches the scheme to https.
	UseTLS bool

	// Authentication options (provide one)
	Username string
	Password string
	APIKey   string
	// APIKeyPlacement defaults to APIKeyHeader.
	APIKeyPlacement APIKeyPlacement

	// Optional configurations
	MaxRetries int
	// RetryUnit is the time unit of the square backoff. Defaults to one second.
	RetryUnit time.Duration
	// Backoff overrides the square backoff, mostly for tests.
	Backoff  BackoffFunc
	Envelope EnvelopeMode
	// HTTPTimeout bounds each attempt. Per-call deadlines belong on the context.
	HTTPTimeout time.Duration
	// HTTPClient replaces the pooled default transport client.
	HTTPClient *http.Client
	UserAgent  string
	// Debug enables request/response logging when a Logger is provided.
	Debug  bool
	Logger Logger
	// RateLimit caps requests per second across the client. Zero disables it.
	RateLimit float64
	// TracerProvider defaults to the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider
}

// WithDefaults returns a copy of the config with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.HostName == "" {
		c.HostName = constants.DefaultHostName
	}

	if c.Version == "" {
		c.Version = constants.DefaultAPIVersion
	}

	if c.APIKeyPlacement == "" {
		c.APIKeyPlacement = APIKeyHeader
	}

	if c.Envelope == "" {
		c.Envelope = EnvelopeAuto
	}

	if c.RetryUnit <= 0 {
		c.RetryUnit = constants.DefaultRetryUnit
	}

	if c.Backoff == nil {
		c.Backoff = SquareBackoff(c.RetryUnit)
	}

	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	return c
}

// Validate checks the config for errors that must fail before any request.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InstanceName) == "" {
		return ErrInstanceNameRequired
	}

	if c.APIKey != "" && (c.Username != "" || c.Password != "") {
		return ErrConflictingCredentials
	}

	if c.Password != "" && c.Username == "" {
		return ErrPasswordWithoutUsername
	}

	switch c.APIKeyPlacement {
	case "", APIKeyHeader, APIKeyQuery:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAPIKeyPlacement, c.APIKeyPlacement)
	}

	switch c.Envelope {
	case "", EnvelopeAuto, EnvelopeNone, EnvelopeVersion:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEnvelopeMode, c.Envelope)
	}

	if c.Version != "" {
		_, err := semver.ParseTolerant(c.Version)
		if err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidVersion, c.Version, err)
		}
	}

	if c.MaxRetries < 0 {
		return ErrNegativeRetries
	}

	return nil
}

// AuthScheme returns the credential scheme the config selects.
func (c Config) AuthScheme() AuthScheme {
	switch {
	case c.APIKey != "":
		return AuthAPIKey
	case c.Username != "":
		return AuthBasic
	default:
		return AuthNone
	}
}

// UnwrapsEnvelopes reports whether result envelopes are removed from
// response bodies.
func (c Config) UnwrapsEnvelopes() bool {
	switch c.Envelope {
	case EnvelopeNone:
		return false
	case EnvelopeVersion:
		version, err := semver.ParseTolerant(c.Version)

		return err == nil && version.Major < 1
	default:
		return true
	}
}

// Scheme returns "https" when UseTLS is set and "http" otherwise.
func (c Config) Scheme() string {
	if c.UseTLS {
		return "https"
	}

	return "http"
}

// BaseURL returns "{scheme}://{instance}.{host}[:{port}]/api/{version}".
func (c Config) BaseURL() string {
	host := c.InstanceName + "." + c.HostName
	if c.Port > 0 {
		host += ":" + strconv.Itoa(c.Port)
	}

	return c.Scheme() + "://" + host + "/api/" + c.Version
}
