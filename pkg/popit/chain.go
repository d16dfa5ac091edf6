package popit

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Chain accumulates path segments until one of its verbs sends the request.
//
// A Chain is never mutated after construction: Append returns a new Chain,
// so a chain may be kept and extended as a common prefix.
type Chain struct {
	requester Requester
	segments  []any
}

// NewChain starts a chain owned by requester.
func NewChain(requester Requester, segments ...any) *Chain {
	return &Chain{
		requester: requester,
		segments:  append([]any(nil), segments...),
	}
}

// Append returns a new chain with segments added after the existing ones.
func (c *Chain) Append(segments ...any) *Chain {
	next := make([]any, 0, len(c.segments)+len(segments))
	next = append(next, c.segments...)
	next = append(next, segments...)

	return &Chain{requester: c.requester, segments: next}
}

// Segments returns a copy of the accumulated segments.
func (c *Chain) Segments() []any {
	return append([]any(nil), c.segments...)
}

// Path joins the segments with "/".
func (c *Chain) Path() (string, error) {
	parts := make([]string, 0, len(c.segments))

	for index, segment := range c.segments {
		part, err := cast.ToStringE(segment)
		if err != nil {
			return "", fmt.Errorf("%w at position %d: %w", ErrInvalidSegment, index, err)
		}

		if part == "" {
			return "", fmt.Errorf("%w at position %d", ErrEmptySegment, index)
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, "/"), nil
}

// String returns the joined path, or a placeholder when a segment cannot be
// converted.
func (c *Chain) String() string {
	path, err := c.Path()
	if err != nil {
		return "<invalid path: " + err.Error() + ">"
	}

	return path
}

// Get sends a GET for the chain's path with query as the query string.
func (c *Chain) Get(ctx context.Context, query Options) (any, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	return c.requester.Get(ctx, path, query)
}

// Post sends a POST for the chain's path with body as JSON.
func (c *Chain) Post(ctx context.Context, body Options) (any, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	return c.requester.Post(ctx, path, body)
}

// Put sends a PUT for the chain's path with body as JSON.
func (c *Chain) Put(ctx context.Context, body Options) (any, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	return c.requester.Put(ctx, path, body)
}

// Delete sends a DELETE for the chain's path with query as the query string.
func (c *Chain) Delete(ctx context.Context, query Options) (any, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	return c.requester.Delete(ctx, path, query)
}
