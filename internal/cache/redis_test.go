package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return mr, c
}

func TestClient_GetSet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "products:all")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetJSON(ctx, "products:all", []string{"a", "b"}, time.Minute))

	var got []string
	require.NoError(t, c.GetJSON(ctx, "products:all", &got))
	assert.Equal(t, []string{"a", "b"}, got)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "products:all")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClient_IsRateLimited(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, c.IsRateLimited(ctx, "10.0.0.1", 3, time.Minute))
	}
	assert.True(t, c.IsRateLimited(ctx, "10.0.0.1", 3, time.Minute))
	assert.False(t, c.IsRateLimited(ctx, "10.0.0.2", 3, time.Minute))

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.IsRateLimited(ctx, "10.0.0.1", 3, time.Minute))
}

func TestClient_FailsOpen(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()

	assert.False(t, c.IsRateLimited(context.Background(), "10.0.0.1", 0, time.Minute))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewClient(addr)
	assert.Error(t, err)
}
