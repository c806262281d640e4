package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/chatwire/llm"
)

const listBody = `{"data":[
	{"id":"m-large","display_name":"M Large","context_length":128000,"max_output_tokens":8192,
	 "owned_by":"acme","capabilities":{"function_calling":true,"vision":false}},
	{"id":"m-small"}
]}`

// countingServer serves the model list and counts hits. fail flips every
// response to a 500.
type countingServer struct {
	*httptest.Server
	hits atomic.Int64
	fail atomic.Bool
}

func newCountingServer(t *testing.T) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		if cs.fail.Load() {
			http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listBody))
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newTestRegistry(cs *countingServer, ttl time.Duration) *Registry {
	return New(Config{
		Provider: "test",
		BaseURL:  cs.URL + "/v1/chat/completions",
		APIKey:   "k",
		TTL:      ttl,
	}, cs.Client(), nil)
}

func TestModels_FetchAndDescriptors(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Minute)

	models, err := reg.Models(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, models, 2)

	large := models[0]
	assert.Equal(t, "m-large", large.ID)
	assert.Equal(t, "M Large", large.Name)
	assert.Equal(t, 128000-8192, large.MaxInputTokens)
	assert.Equal(t, 8192, large.MaxOutputTokens)
	assert.True(t, large.SupportsTools)
	assert.False(t, large.SupportsVision)
	assert.Equal(t, "acme", large.Metadata["owned_by"])

	// Absent fields fall back to provider defaults.
	small := models[1]
	assert.Equal(t, "m-small", small.Name)
	assert.Equal(t, 8192-4096, small.MaxInputTokens)
	assert.Equal(t, 4096, small.MaxOutputTokens)
	assert.False(t, small.SupportsTools)
}

func TestModels_CacheHitDoesNoIO(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Minute)

	_, err := reg.Models(context.Background(), false)
	require.NoError(t, err)
	_, err = reg.Models(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.hits.Load())
}

func TestModels_ExpiredTTLRefetches(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Nanosecond)

	_, err := reg.Models(context.Background(), false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = reg.Models(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cs.hits.Load())
}

func TestModels_ForceRefreshBypassesCache(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Minute)

	_, err := reg.Models(context.Background(), false)
	require.NoError(t, err)
	_, err = reg.Models(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cs.hits.Load())
}

func TestModels_ConcurrentCallersShareOneFetch(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models, err := reg.Models(context.Background(), false)
			assert.NoError(t, err)
			assert.Len(t, models, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), cs.hits.Load(), "exactly one upstream fetch")
}

func TestModels_StaleServedOnRefreshFailure(t *testing.T) {
	cs := newCountingServer(t)
	reg := newTestRegistry(cs, time.Nanosecond)

	first, err := reg.Models(context.Background(), false)
	require.NoError(t, err)

	cs.fail.Store(true)
	time.Sleep(time.Millisecond)
	second, err := reg.Models(context.Background(), false)
	require.NoError(t, err, "stale cache masks the failed refresh")
	assert.Equal(t, first, second)
}

func TestModels_NoCacheFailurePropagates(t *testing.T) {
	cs := newCountingServer(t)
	cs.fail.Store(true)
	reg := newTestRegistry(cs, time.Minute)

	_, err := reg.Models(context.Background(), false)
	require.Error(t, err)
	var lerr *llm.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.ErrUpstreamError, lerr.Code)
}

func TestModels_UnreachableEndpoint(t *testing.T) {
	reg := New(Config{
		Provider:     "test",
		BaseURL:      "http://127.0.0.1:1/v1/chat/completions",
		APIKey:       "k",
		FetchTimeout: time.Second,
	}, &http.Client{}, nil)

	_, err := reg.Models(context.Background(), false)
	var lerr *llm.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.ErrModelFetch, lerr.Code)
	assert.True(t, lerr.Retryable)
}

func TestModelsURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.example.com/v1/chat/completions", "https://api.example.com/v1/models"},
		{"https://api.example.com/v1/chat/completions/", "https://api.example.com/v1/models"},
		{"https://api.example.com/v1/messages", "https://api.example.com/v1/models"},
		{"https://api.example.com/v1", "https://api.example.com/v1/models"},
		{"https://api.example.com", "https://api.example.com/models"},
		{"https://api.example.com///", "https://api.example.com/models"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ModelsURL(tc.base), tc.base)
	}
}
