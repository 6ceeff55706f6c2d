package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egadget-storefront/internal/config"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, storage.Store) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	cfg := &config.Config{APIBaseURL: srv.URL + "/api/", RequestTimeout: 2 * time.Second, RetryAttempts: 1}
	return NewClient(cfg, store), store
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotReqID string
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		assert.Equal(t, "/api/products", r.URL.Path)
		w.Write([]byte(`{"ok":true}`))
	}))
	ctx := context.Background()

	var out map[string]bool
	require.NoError(t, c.Get(ctx, "/products", &out))
	assert.Empty(t, gotAuth)
	assert.NotEmpty(t, gotReqID)

	require.NoError(t, store.Set(ctx, storage.KeyToken, []byte("tok-1")))
	require.NoError(t, c.Get(ctx, "/products", &out))
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.True(t, out["ok"])
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	ctx := context.Background()
	require.NoError(t, c.SetToken(ctx, "stale"))

	for _, call := range []func() error{
		func() error { return c.Get(ctx, "/cart", nil) },
		func() error { return c.Post(ctx, "/cart", map[string]int{"quantity": 1}, nil) },
		func() error { return c.Put(ctx, "/cart/1", map[string]int{"quantity": 1}, nil) },
		func() error { return c.Delete(ctx, "/cart/1", nil) },
	} {
		require.NoError(t, c.SetToken(ctx, "stale"))
		err := call()
		assert.ErrorIs(t, err, ErrUnauthorized)
		_, err = store.Get(ctx, storage.KeyToken)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
	assert.Empty(t, c.Token(ctx))
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server message", http.StatusBadRequest, `{"message":"Insufficient stock"}`, "Insufficient stock"},
		{"no message", http.StatusConflict, `{}`, "API error: 409"},
		{"unparsable", http.StatusBadGateway, `<html>`, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := c.Post(context.Background(), "/cart", nil, nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Error())
			assert.Equal(t, tt.status >= 500, resilience.IsUnavailable(err))
		})
	}
}

func TestClient_RetriesOnlyGets(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(&config.Config{APIBaseURL: srv.URL, RequestTimeout: time.Second, RetryAttempts: 3}, storage.NewMemoryStore())
	c.retryDelay = 0

	require.NoError(t, c.Get(context.Background(), "/products", nil))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	err := c.Post(context.Background(), "/cart", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(&config.Config{APIBaseURL: url, RequestTimeout: time.Second, RetryAttempts: 1}, storage.NewMemoryStore())
	err := c.Get(context.Background(), "/auth/check", nil)
	require.Error(t, err)
	assert.True(t, resilience.IsUnavailable(err))
}

func TestRouteOf(t *testing.T) {
	assert.Equal(t, "/cart", routeOf("/cart"))
	assert.Equal(t, "/cart/:id", routeOf("/cart/17"))
	assert.Equal(t, "/products/:id/reviews", routeOf("/products/p-3/reviews"))
	assert.Equal(t, "/products", routeOf("/products?category=Laptops"))
}

func TestFlexibleID(t *testing.T) {
	var v struct {
		A flexibleID `json:"a"`
		B flexibleID `json:"b"`
		C flexibleID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"x-7","c":null}`), &v))
	assert.Equal(t, flexibleID("12"), v.A)
	assert.Equal(t, flexibleID("x-7"), v.B)
	assert.Equal(t, flexibleID(""), v.C)
}
