package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// PopIt API defaults.
const (
	// DefaultHostName is the public PopIt host.
	DefaultHostName = "popit.mysociety.org"

	// DefaultAPIVersion is the API version path segment.
	DefaultAPIVersion = "v1"

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "popit-go/1"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryUnit is the time unit of the square backoff.
	DefaultRetryUnit = 1 * time.Second

	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3
)

// Request headers and parameters.
const (
	// HeaderAPIKey carries the API key when it is sent as a header.
	HeaderAPIKey = "Apikey"

	// QueryAPIKey carries the API key when it is sent as a query parameter.
	QueryAPIKey = "apikey"

	// HeaderRequestID identifies a request in client and server logs.
	HeaderRequestID = "X-Request-Id"

	// ContentTypeJSON is used for request bodies and the Accept header.
	ContentTypeJSON = "application/json"
)

// Response envelope members.
const (
	// EnvelopeResult wraps a single resource.
	EnvelopeResult = "result"

	// EnvelopeResults wraps a collection.
	EnvelopeResults = "results"
)

// Standard PopIt collections.
const (
	CollectionPersons       = "persons"
	CollectionOrganizations = "organizations"
	CollectionMemberships   = "memberships"
	CollectionPosts         = "posts"
)
