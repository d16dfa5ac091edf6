// Package http sends PopIt API requests: URL and body construction,
// credentials, the 503 retry policy, and response classification.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/popit/internal/auth"
	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

const tracerName = "github.com/fivetwenty-io/popit/internal/http"

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	// Authenticate attaches the client's credentials.
	Authenticate bool
}

// Response is the raw result of an API call.
type Response struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Client sends requests relative to a base URL.
type Client struct {
	baseURL       string
	authenticator auth.Authenticator
	httpClient    *retryablehttp.Client
	logger        Logger
	debug         bool
	userAgent     string
	tracer        trace.Tracer
	limiter       *rate.Limiter

	// settings consumed when the retryable client is built
	baseHTTPClient *http.Client
	timeout        time.Duration
	retryMax       int
	backoff        popit.BackoffFunc
	tracerProvider trace.TracerProvider
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryMax sets how many times a 503 response is retried.
func WithRetryMax(retryMax int) Option {
	return func(c *Client) {
		c.retryMax = retryMax
	}
}

// WithBackoff sets the delay before each retry.
func WithBackoff(backoff popit.BackoffFunc) Option {
	return func(c *Client) {
		c.backoff = backoff
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.baseHTTPClient = httpClient
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit caps requests per second. Zero or less disables the limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil

			return
		}

		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = provider
	}
}

// NewClient creates a client for baseURL. A nil authenticator sends every
// request without credentials.
func NewClient(baseURL string, authenticator auth.Authenticator, opts ...Option) *Client {
	client := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		authenticator: authenticator,
		userAgent:     constants.DefaultUserAgent,
		timeout:       constants.DefaultHTTPTimeout,
		backoff:       popit.SquareBackoff(constants.DefaultRetryUnit),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.authenticator == nil {
		client.authenticator = auth.NoneAuthenticator{}
	}

	if client.tracerProvider == nil {
		client.tracerProvider = otel.GetTracerProvider()
	}

	client.tracer = client.tracerProvider.Tracer(tracerName)
	client.httpClient = client.newRetryableClient()

	return client
}

func (c *Client) newRetryableClient() *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()

	switch {
	case c.baseHTTPClient != nil:
		retryClient.HTTPClient = c.baseHTTPClient
	case c.timeout > 0:
		retryClient.HTTPClient.Timeout = c.timeout
	}

	backoff := c.backoff

	retryClient.RetryMax = c.retryMax
	retryClient.CheckRetry = retryOnUnavailable
	retryClient.Backoff = func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return backoff(attemptNum)
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.RequestLogHook = c.logRetry

	return retryClient
}

// retryOnUnavailable retries 503 responses only. Transport failures and
// every other status are returned on the first attempt.
func retryOnUnavailable(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil || resp == nil {
		return false, nil
	}

	return resp.StatusCode == http.StatusServiceUnavailable, nil
}

func (c *Client) logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 || c.logger == nil {
		return
	}

	c.logger.Warn("Retrying request after service unavailable", map[string]interface{}{
		"method":  req.Method,
		"url":     redactURL(req.URL),
		"attempt": attempt,
	})
}

// BaseURL returns the URL requests are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the full URL for path and query.
func (c *Client) URL(path string, query url.Values) string {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL
}

// Do sends req. The response is returned alongside a *popit.Error for
// non-success statuses so callers can inspect it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.URL(req.Path, req.Query)

	ctx, span := c.tracer.Start(ctx, "popit "+req.Method, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("popit.path", req.Path),
	)

	resp, err := c.do(ctx, req, fullURL)

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()

	return resp, err
}

func (c *Client) do(ctx context.Context, req *Request, fullURL string) (*Response, error) {
	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, c.transportError(req.Method, fullURL, fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}

	var rawBody interface{}

	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, c.transportError(req.Method, fullURL, fmt.Errorf("encoding request body: %w", err))
		}

		rawBody = data
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, c.transportError(req.Method, fullURL, fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Accept", constants.ContentTypeJSON)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(constants.HeaderRequestID, ulid.Make().String())

	if rawBody != nil {
		httpReq.Header.Set("Content-Type", constants.ContentTypeJSON)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Authenticate {
		c.authenticator.Apply(httpReq.Request)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     req.Method,
			"url":        redactURL(httpReq.URL),
			"request_id": httpReq.Header.Get(constants.HeaderRequestID),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, c.transportError(req.Method, fullURL, err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(req.Method, fullURL, fmt.Errorf("reading response body: %w", err))
	}

	resp := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Header:      httpResp.Header,
		Body:        body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         redactURL(httpReq.URL),
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	if !popit.IsSuccessStatus(resp.StatusCode) {
		apiErr := newAPIError(req.Method, redactURL(httpReq.URL), resp)
		if c.logger != nil {
			c.logger.Error("API request failed", map[string]interface{}{
				"method":      req.Method,
				"url":         apiErr.URL,
				"status_code": resp.StatusCode,
				"kind":        apiErr.Kind.String(),
			})
		}

		return resp, apiErr
	}

	return resp, nil
}

func (c *Client) transportError(method, fullURL string, err error) *popit.Error {
	if parsed, parseErr := url.Parse(fullURL); parseErr == nil {
		fullURL = redactURL(parsed)
	}

	if c.logger != nil {
		c.logger.Error("API request failed", map[string]interface{}{
			"method": method,
			"url":    fullURL,
			"error":  err.Error(),
		})
	}

	return &popit.Error{
		Kind:    popit.KindGeneric,
		Message: fmt.Sprintf("%s %s: %v", method, fullURL, err),
		Method:  method,
		URL:     fullURL,
		Err:     err,
	}
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends an authenticated POST request with body as JSON.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Authenticate: true})
}

// Put sends an authenticated PUT request with body as JSON.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, Authenticate: true})
}

// Delete sends an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Query: query, Authenticate: true})
}

// redactURL drops the API key query parameter from logged and reported URLs.
func redactURL(u *url.URL) string {
	query := u.Query()
	if !query.Has(constants.QueryAPIKey) {
		return u.String()
	}

	redacted := *u
	query.Set(constants.QueryAPIKey, "REDACTED")
	redacted.RawQuery = query.Encode()

	return redacted.String()
}
