package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/popit/internal/auth"
	"github.com/fivetwenty-io/popit/internal/constants"
	popithttp "github.com/fivetwenty-io/popit/internal/http"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// Client implements the popit.Client interface.
type Client struct {
	httpClient *popithttp.Client
	config     popit.Config
	logger     popit.Logger
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config popit.Config) []popithttp.Option {
	httpOpts := []popithttp.Option{
		popithttp.WithUserAgent(config.UserAgent),
		popithttp.WithTimeout(config.HTTPTimeout),
		popithttp.WithRetryMax(config.MaxRetries),
		popithttp.WithBackoff(config.Backoff),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, popithttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, popithttp.WithDebug(true))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, popithttp.WithHTTPClient(config.HTTPClient))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, popithttp.WithRateLimit(config.RateLimit))
	}

	if config.TracerProvider != nil {
		httpOpts = append(httpOpts, popithttp.WithTracerProvider(config.TracerProvider))
	}

	return httpOpts
}

// New creates a new PopIt API client. Config is copied, so later changes to
// it do not affect the client.
func New(config *popit.Config) (*Client, error) {
	if config == nil {
		return nil, popit.ErrConfigRequired
	}

	resolved := config.WithDefaults()

	err := resolved.Validate()
	if err != nil {
		return nil, err
	}

	httpClient := popithttp.NewClient(resolved.BaseURL(), auth.New(resolved), createHTTPClientOptions(resolved)...)

	return &Client{
		httpClient: httpClient,
		config:     resolved,
		logger:     resolved.Logger,
	}, nil
}

// BaseURL implements popit.Client.BaseURL.
func (c *Client) BaseURL() string {
	return c.httpClient.BaseURL()
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() popit.Config {
	return c.config
}

// Path implements popit.Client.Path.
func (c *Client) Path(segments ...any) *popit.Chain {
	return popit.NewChain(c, segments...)
}

// Persons implements popit.Client.Persons.
func (c *Client) Persons(ids ...any) *popit.Chain {
	return c.collection(constants.CollectionPersons, ids)
}

// Organizations implements popit.Client.Organizations.
func (c *Client) Organizations(ids ...any) *popit.Chain {
	return c.collection(constants.CollectionOrganizations, ids)
}

// Memberships implements popit.Client.Memberships.
func (c *Client) Memberships(ids ...any) *popit.Chain {
	return c.collection(constants.CollectionMemberships, ids)
}

// Posts implements popit.Client.Posts.
func (c *Client) Posts(ids ...any) *popit.Chain {
	return c.collection(constants.CollectionPosts, ids)
}

func (c *Client) collection(name string, ids []any) *popit.Chain {
	return popit.NewChain(c, name).Append(ids...)
}

// Get implements popit.Client.Get.
func (c *Client) Get(ctx context.Context, path string, query popit.Options) (any, error) {
	return c.value(ctx, http.MethodGet, path, query)
}

// Post implements popit.Client.Post.
func (c *Client) Post(ctx context.Context, path string, body popit.Options) (any, error) {
	return c.value(ctx, http.MethodPost, path, body)
}

// Put implements popit.Client.Put.
func (c *Client) Put(ctx context.Context, path string, body popit.Options) (any, error) {
	return c.value(ctx, http.MethodPut, path, body)
}

// Delete implements popit.Client.Delete.
func (c *Client) Delete(ctx context.Context, path string, query popit.Options) (any, error) {
	return c.value(ctx, http.MethodDelete, path, query)
}

func (c *Client) value(ctx context.Context, method, path string, opts popit.Options) (any, error) {
	resp, err := c.Do(ctx, method, path, opts)
	if err != nil {
		return nil, err
	}

	return resp.Value()
}

// Do implements popit.Client.Do. GET, HEAD and DELETE send opts as the query
// string; every other method sends them as a JSON body. Every method except
// GET and HEAD carries credentials.
func (c *Client) Do(ctx context.Context, method, path string, opts popit.Options) (*popit.Response, error) {
	req := &popithttp.Request{
		Method:       method,
		Path:         path,
		Authenticate: method != http.MethodGet && method != http.MethodHead,
	}

	if usesQuery(method) {
		query, err := EncodeQuery(opts)
		if err != nil {
			return nil, err
		}

		req.Query = query
	} else {
		if opts == nil {
			opts = popit.Options{}
		}

		req.Body = opts
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	return &popit.Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Header:      resp.Header,
		Body:        c.unwrap(resp.Body),
	}, nil
}

func usesQuery(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodDelete
}

// unwrap strips a {"result": ...} or {"results": [...]} envelope. A body of
// only whitespace is returned empty.
func (c *Client) unwrap(body []byte) []byte {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if !c.config.UnwrapsEnvelopes() {
		return body
	}

	return UnwrapEnvelope(body)
}

// envelopeKeys are the members an envelope may carry besides its payload.
var envelopeKeys = map[string]bool{
	constants.EnvelopeResult:  true,
	constants.EnvelopeResults: true,
	"total":                   true,
	"page":                    true,
	"per_page":                true,
	"has_more":                true,
	"next_url":                true,
	"prev_url":                true,
}

// UnwrapEnvelope returns the "result" or "results" member of a top-level JSON
// object whose other members are all paging metadata. Any other body, such
// as a resource that has its own "result" field, is returned unchanged.
func UnwrapEnvelope(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return body
	}

	shaped := true

	root.ForEach(func(key, _ gjson.Result) bool {
		shaped = envelopeKeys[key.String()]

		return shaped
	})

	if !shaped {
		return body
	}

	for _, key := range []string{constants.EnvelopeResult, constants.EnvelopeResults} {
		member := root.Get(key)
		if member.Exists() {
			return []byte(member.Raw)
		}
	}

	return body
}

// EncodeQuery turns options into query parameters. Slices become repeated
// keys; every other value is converted with spf13/cast.
func EncodeQuery(opts popit.Options) (url.Values, error) {
	if len(opts) == 0 {
		return nil, nil
	}

	query := make(url.Values, len(opts))

	for key, value := range opts {
		values, err := queryValues(value)
		if err != nil {
			return nil, fmt.Errorf("%w for %q: %w", popit.ErrInvalidQueryValue, key, err)
		}

		for _, v := range values {
			query.Add(key, v)
		}
	}

	return query, nil
}

func queryValues(value any) ([]string, error) {
	switch typed := value.(type) {
	case []string:
		return typed, nil
	case []any:
		out := make([]string, 0, len(typed))

		for _, item := range typed {
			str, err := cast.ToStringE(item)
			if err != nil {
				return nil, fmt.Errorf("converting query value: %w", err)
			}

			out = append(out, str)
		}

		return out, nil
	default:
		str, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("converting query value: %w", err)
		}

		return []string{str}, nil
	}
}
