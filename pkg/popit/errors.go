package popit

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API request.
type Kind int

const (
	// KindGeneric covers every non-success status without a dedicated kind,
	// as well as transport and decoding failures.
	KindGeneric Kind = iota
	// KindPageNotFound is returned for 404 responses.
	KindPageNotFound
	// KindNotAuthenticated is returned for 401 responses.
	KindNotAuthenticated
	// KindServiceUnavailable is returned for 503 responses. It is the only
	// retryable kind.
	KindServiceUnavailable
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindPageNotFound:
		return "page not found"
	case KindNotAuthenticated:
		return "not authenticated"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindGeneric:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindForStatus maps an HTTP status code onto an error kind.
func KindForStatus(statusCode int) Kind {
	switch statusCode {
	case http.StatusNotFound:
		return KindPageNotFound
	case http.StatusUnauthorized:
		return KindNotAuthenticated
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindGeneric
	}
}

// IsSuccessStatus reports whether the API treats statusCode as success.
func IsSuccessStatus(statusCode int) bool {
	return statusCode == http.StatusOK ||
		statusCode == http.StatusCreated ||
		statusCode == http.StatusNoContent
}

// Error represents a failed PopIt API request.
type Error struct {
	Kind Kind
	// Message is the server's "error" field, its joined "errors" list, the
	// raw body, or the bare status code for HTML and plain text pages.
	Message    string
	StatusCode int
	Method     string
	URL        string
	// Err is the underlying cause for transport and decoding failures.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Kind.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels (ErrPageNotFound, ...) by kind. Any other
// *Error only matches itself.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrGeneric, ErrPageNotFound, ErrNotAuthenticated, ErrServiceUnavailable:
		sentinel, _ := target.(*Error)

		return sentinel.Kind == e.Kind
	default:
		return false
	}
}

// Kind sentinels for use with errors.Is.
var (
	ErrGeneric            = &Error{Kind: KindGeneric}
	ErrPageNotFound       = &Error{Kind: KindPageNotFound}
	ErrNotAuthenticated   = &Error{Kind: KindNotAuthenticated}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired          = errors.New("config is required")
	ErrInstanceNameRequired    = errors.New("missing instance name")
	ErrConflictingCredentials  = errors.New("configure either username/password or an API key, not both")
	ErrPasswordWithoutUsername = errors.New("password given without a username")
	ErrInvalidAPIKeyPlacement  = errors.New("invalid API key placement")
	ErrInvalidVersion          = errors.New("invalid API version")
	ErrInvalidEnvelopeMode     = errors.New("invalid envelope mode")
	ErrInvalidSegment          = errors.New("invalid path segment")
	ErrEmptySegment            = errors.New("empty path segment")
	ErrInvalidQueryValue       = errors.New("invalid query value")
	ErrNegativeRetries         = errors.New("max retries must not be negative")
)

// KindOf returns the kind of err, or KindGeneric with false when err does not
// wrap an *Error.
func KindOf(err error) (Kind, bool) {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}

	return KindGeneric, false
}

// IsNotFound checks if the error is a page not found error.
func IsNotFound(err error) bool {
	kind, ok := KindOf(err)

	return ok && kind == KindPageNotFound
}

// IsNotAuthenticated checks if the error is a not authenticated error.
func IsNotAuthenticated(err error) bool {
	kind, ok := KindOf(err)

	return ok && kind == KindNotAuthenticated
}

// IsServiceUnavailable checks if the error is a service unavailable error.
func IsServiceUnavailable(err error) bool {
	kind, ok := KindOf(err)

	return ok && kind == KindServiceUnavailable
}
