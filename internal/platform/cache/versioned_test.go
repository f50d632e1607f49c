package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	N int `json:"n"`
}

func newTestCache(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "dashboard", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return payload{N: calls}, nil
	}

	key, err := c.Key(ctx, "overview")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:overview:v1", key)

	var got payload
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, got.N)

	require.NoError(t, c.Bump(ctx))
	key, err = c.Key(ctx, "overview")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:overview:v2", key)
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, 2, got.N)
}

func TestFetchJSONExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return payload{N: calls}, nil
	}
	key, err := c.Key(ctx, "overview")
	require.NoError(t, err)

	var got payload
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, 2, calls)
}

func TestNilClientCallsLoader(t *testing.T) {
	c := NewVersioned(nil, "dashboard", time.Minute)
	var got payload
	require.NoError(t, c.FetchJSON(context.Background(), "k", &got, func(context.Context) (any, error) {
		return payload{N: 7}, nil
	}))
	assert.Equal(t, 7, got.N)
	assert.NoError(t, c.Bump(context.Background()))
}
