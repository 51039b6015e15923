package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/pkg/config"
	"github.com/wonny/swing/backend/pkg/logger"
)

func testClient() *Client {
	cfg := &config.Config{Env: "development"}
	return New(cfg, logger.NewNop()).WithRetry(2, time.Millisecond)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Env: "development",
		Sources: config.SourcesConfig{
			HTTPRatePerSec: 4,
			HTTPTimeout:    3 * time.Second,
		},
	}

	client := New(cfg, logger.NewNop())
	require.NotNil(t, client)
	assert.Equal(t, 3*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.limiter)
	assert.True(t, client.retryConfig.Enabled)
	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])
}

func TestNew_DefaultTimeoutAndNoLimiter(t *testing.T) {
	client := New(&config.Config{}, logger.NewNop())
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)
}

func TestGet_SendsDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://example.test/", r.Header.Get("Referer"))
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := testClient().WithHeader("Referer", "https://example.test/")

	var out map[string]string
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("done"))
	}))
	defer server.Close()

	body, err := testClient().GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "done", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetBody_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient().DisableRetry().GetBody(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(500))
	assert.True(t, IsRetryableError(503))
	assert.True(t, IsRetryableError(429))
	assert.False(t, IsRetryableError(404))
	assert.False(t, IsRetryableError(200))
}
