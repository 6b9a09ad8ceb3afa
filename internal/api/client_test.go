package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-token", 5*time.Second), srv
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out struct{}
	require.NoError(t, client.Get(context.Background(), "/notifications", &out))
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_UnauthorizedReturnsAuthError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := client.Get(context.Background(), "/auth/me", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestClient_SurfacesBackendErrorMessage(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Notification not found"}`))
	}))
	defer srv.Close()

	err := client.Put(context.Background(), "/notifications/x/read", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Notification not found")
	assert.False(t, IsAuthError(err))
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls int32
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, client.Get(context.Background(), "/notifications", &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_429RespectsContextCancellation(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Get(ctx, "/notifications", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_NoContentSkipsParsing(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := struct{ Set bool }{}
	require.NoError(t, client.Put(context.Background(), "/notifications/read/all", nil, &out))
	assert.False(t, out.Set)
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 1*time.Second, retryAfterDuration(resp, 0))
	assert.Equal(t, 2*time.Second, retryAfterDuration(resp, 1))
	assert.Equal(t, 4*time.Second, retryAfterDuration(resp, 2))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfterDuration(resp, 0))

	resp.Header.Set("Retry-After", "bogus")
	assert.Equal(t, 2*time.Second, retryAfterDuration(resp, 1))
}
