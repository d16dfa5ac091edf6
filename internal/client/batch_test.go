package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/popit/pkg/popit"
)

func TestClient_Batch(t *testing.T) {
	t.Parallel()

	fake, server := newFakePopIt(t)
	fake.respond("DELETE", "/api/v1/persons/a", http.StatusOK, `{}`)
	fake.respond("DELETE", "/api/v1/persons/c", http.StatusNoContent, "")
	fake.respond("POST", "/api/v1/persons", http.StatusCreated, `{"result":{"id":"d"}}`)

	c := newTestClient(t, server, popit.Config{APIKey: "key"})

	results := c.Batch(context.Background(), []popit.Operation{
		{ID: "a", Method: http.MethodDelete, Path: "persons/a"},
		{ID: "b", Method: http.MethodDelete, Path: "persons/b"},
		{ID: "c", Method: http.MethodDelete, Path: "persons/c"},
		{ID: "d", Method: http.MethodPost, Path: "persons", Options: popit.Options{"name": "D"}},
	}, 2)

	require.Len(t, results, 4)

	assert.Equal(t, "a", results[0].ID)
	assert.True(t, results[0].Success())
	assert.Equal(t, map[string]any{}, results[0].Value)

	assert.Equal(t, "b", results[1].ID)
	assert.False(t, results[1].Success())
	assert.True(t, popit.IsNotFound(results[1].Err))

	assert.Equal(t, "c", results[2].ID)
	require.NoError(t, results[2].Err)
	assert.Nil(t, results[2].Value)

	assert.Equal(t, "d", results[3].ID)
	require.NoError(t, results[3].Err)
	assert.Equal(t, map[string]any{"id": "d"}, results[3].Value)

	for _, request := range fake.recorded() {
		assert.Equal(t, "key", request.APIKey)
	}
}

func TestClient_BatchRespectsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		current := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)

		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server, popit.Config{})

	operations := make([]popit.Operation, 9)
	for index := range operations {
		operations[index] = popit.Operation{Method: http.MethodGet, Path: "persons"}
	}

	results := c.Batch(context.Background(), operations, 3)

	require.Len(t, results, 9)

	for _, result := range results {
		require.NoError(t, result.Err)
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestClient_BatchCanceledContext(t *testing.T) {
	t.Parallel()

	fake, server := newFakePopIt(t)
	c := newTestClient(t, server, popit.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.Batch(ctx, []popit.Operation{
		{ID: "x", Method: http.MethodGet, Path: "persons"},
	}, 0)

	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Empty(t, fake.recorded())
}
