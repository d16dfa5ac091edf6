package popit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Options carries query parameters for GET and DELETE, and the JSON body for
// POST and PUT.
type Options map[string]any

// Requester sends one request per call. Client implements it; Chain forwards
// its terminal verbs to it.
type Requester interface {
	Get(ctx context.Context, path string, query Options) (any, error)
	Post(ctx context.Context, path string, body Options) (any, error)
	Put(ctx context.Context, path string, body Options) (any, error)
	Delete(ctx context.Context, path string, query Options) (any, error)
}

// CollectionClients provides chain shortcuts for the standard PopIt
// collections.
type CollectionClients interface {
	Persons(ids ...any) *Chain
	Organizations(ids ...any) *Chain
	Memberships(ids ...any) *Chain
	Posts(ids ...any) *Chain
}

// Client is a PopIt API client.
type Client interface {
	Requester
	CollectionClients

	// Path starts a chain with the given segments.
	Path(segments ...any) *Chain
	// Do sends a request and returns the raw response with any result
	// envelope already removed from the body.
	Do(ctx context.Context, method, path string, opts Options) (*Response, error)
	// Batch runs independent operations with bounded concurrency.
	Batch(ctx context.Context, operations []Operation, concurrency int) []BatchResult
	// BaseURL returns "{scheme}://{instance}.{host}[:{port}]/api/{version}".
	BaseURL() string
}

// Response is a successful API response.
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	// Body is the response payload with any result envelope removed.
	Body []byte
}

// Value decodes the body into a generic JSON value. An empty or blank body
// yields nil.
func (r *Response) Value() (any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}

	var value any

	err := json.Unmarshal(r.Body, &value)
	if err != nil {
		return nil, &Error{
			Kind:       KindGeneric,
			StatusCode: r.StatusCode,
			Message:    fmt.Sprintf("parsing response body: %v", err),
			Err:        err,
		}
	}

	return value, nil
}

// Decode decodes the body into v. An empty or blank body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}

	return nil
}

// Operation is a single request in a batch.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Options Options
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Value    any
	Err      error
	Duration time.Duration
}

// Success reports whether the operation completed without error.
func (r BatchResult) Success() bool {
	return r.Err == nil
}
