package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInvalidate_DeletesAllProviderKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewInvalidatorWithClient(client, zap.NewNop())

	for _, key := range Keys(7) {
		require.NoError(t, mr.Set(key, "cached"))
	}
	// unrelated provider stays untouched
	require.NoError(t, mr.Set("provider:8:metrics", "cached"))

	inv.Invalidate(context.Background(), 7)

	for _, key := range Keys(7) {
		assert.False(t, mr.Exists(key), "key %s should be gone", key)
	}
	assert.True(t, mr.Exists("provider:8:metrics"))
}

func TestInvalidate_AbsentKeysAreNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewInvalidatorWithClient(client, zap.NewNop())

	// nothing cached yet; must not error or panic
	inv.Invalidate(context.Background(), 7)
	inv.Invalidate(context.Background(), 7)
}

func TestInvalidate_NilClientIsNoop(t *testing.T) {
	var inv *Invalidator
	inv.Invalidate(context.Background(), 7)

	inv = NewInvalidatorWithClient(nil, zap.NewNop())
	inv.Invalidate(context.Background(), 7)
}
