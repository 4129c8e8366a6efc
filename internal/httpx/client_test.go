package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetries(n int) Option {
	return WithRetryPolicy(RetryPolicy{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

func TestClientRetriesTransientStatusWithSameRequestID(t *testing.T) {
	var calls atomic.Int32
	ids := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(RequestIDHeader)
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"chip":"c"}` {
			t.Errorf("unexpected body %q", body)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, fastRetries(3))
	require.NoError(t, err)

	body, ctype, err := JSONBody(map[string]string{"chip": "c"})
	require.NoError(t, err)
	req := &Request{Method: http.MethodPost, Path: "/query", Body: body, Header: http.Header{"Content-Type": {ctype}}}
	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	data, err := ReadAllAndClose(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"result":true}`, string(data))
	assert.Equal(t, int32(3), calls.Load())

	require.NotEmpty(t, req.ID)
	close(ids)
	for id := range ids {
		assert.Equal(t, req.ID, id)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad sql"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, fastRetries(3))
	require.NoError(t, err)
	_, err = c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "chips"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.False(t, httpErr.Retryable())
	assert.Equal(t, map[string]any{"error": "bad sql"}, httpErr.JSON)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, fastRetries(2))
	require.NoError(t, err)
	_, err = c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/chips"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.Retryable())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientKeepsCallerRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo", r.Header.Get(RequestIDHeader))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHeaders(http.Header{"X-Api-Key": {"k"}}))
	require.NoError(t, err)
	resp, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/", ID: "req-1"})
	require.NoError(t, err)
	_, _ = ReadAllAndClose(resp.Body)
	assert.Equal(t, "req-1", resp.Header.Get("X-Echo"))
}

func TestClientHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryPolicy(RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, &Request{Method: http.MethodGet, Path: "/"})
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	_, err = NewClient("http://[::1")
	require.Error(t, err)

	c, err := NewClient("http://localhost:8080/api/")
	require.NoError(t, err)
	u, err := c.buildURL("query", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/query", u)

	_, err = c.Do(context.Background(), &Request{Path: "/"})
	require.Error(t, err)
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, 45*time.Millisecond, 0)
	assert.Equal(t, 10*time.Millisecond, b.ForAttempt(0))
	assert.Equal(t, 20*time.Millisecond, b.ForAttempt(1))
	assert.Equal(t, 40*time.Millisecond, b.ForAttempt(2))
	assert.Equal(t, 45*time.Millisecond, b.ForAttempt(3))
	assert.Equal(t, 45*time.Millisecond, b.ForAttempt(60))

	j := NewBackoff(100*time.Millisecond, time.Second, 5)
	for i := 0; i < 50; i++ {
		d := j.ForAttempt(0)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}
