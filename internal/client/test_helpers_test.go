package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/popit/internal/client"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// recordedRequest captures what the fake PopIt server received.
type recordedRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Body        map[string]any
	ContentType string
	Username    string
	Password    string
	HasAuth     bool
	APIKey      string
}

// fakePopIt serves canned responses keyed by "METHOD path" and records every
// request it receives.
type fakePopIt struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]cannedResponse
}

type cannedResponse struct {
	status      int
	contentType string
	body        string
}

func newFakePopIt(t *testing.T) (*fakePopIt, *httptest.Server) {
	t.Helper()

	fake := &fakePopIt{responses: map[string]cannedResponse{}}
	server := httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(server.Close)

	return fake, server
}

func (f *fakePopIt) respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[method+" "+path] = cannedResponse{status: status, contentType: "application/json", body: body}
}

func (f *fakePopIt) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakePopIt) serveHTTP(writer http.ResponseWriter, request *http.Request) {
	record := recordedRequest{
		Method:      request.Method,
		Path:        request.URL.Path,
		Query:       request.URL.Query(),
		ContentType: request.Header.Get("Content-Type"),
		APIKey:      request.Header.Get("Apikey"),
	}
	record.Username, record.Password, record.HasAuth = request.BasicAuth()

	data, _ := io.ReadAll(request.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &record.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, record)
	response, ok := f.responses[request.Method+" "+request.URL.Path]
	f.mu.Unlock()

	if !ok {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"error":"page not found"}`))

		return
	}

	if response.contentType != "" {
		writer.Header().Set("Content-Type", response.contentType)
	}

	writer.WriteHeader(response.status)
	_, _ = writer.Write([]byte(response.body))
}

// newTestClient points a client at server by overriding the host resolution:
// the instance URL is rewritten to the test server's address.
func newTestClient(t *testing.T, server *httptest.Server, config popit.Config) *client.Client {
	t.Helper()

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)

	if config.InstanceName == "" {
		config.InstanceName = "tttest"
	}

	config.HTTPClient = &http.Client{
		Transport: rewriteHostTransport{host: serverURL.Host, base: http.DefaultTransport},
	}

	c, err := client.New(&config)
	require.NoError(t, err)

	return c
}

// rewriteHostTransport sends every request to host, keeping path and query.
type rewriteHostTransport struct {
	host string
	base http.RoundTripper
}

func (r rewriteHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = "http"
	clone.URL.Host = r.host
	clone.Host = r.host

	return r.base.RoundTrip(clone)
}

func jsonBody(t *testing.T, value any) string {
	t.Helper()

	data, err := json.Marshal(value)
	require.NoError(t, err)

	return strings.TrimSpace(string(data))
}

// newRetryServer answers 503 to the first failures requests and then a JSON
// string "ok".
func newRetryServer(t *testing.T, failures int32, attempts *int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		attempt := atomic.AddInt32(attempts, 1)

		writer.Header().Set("Content-Type", "application/json")

		if attempt <= failures {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte(`{"error":"service unavailable"}`))

			return
		}

		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(`"ok"`))
	}))
	t.Cleanup(server.Close)

	return server
}
