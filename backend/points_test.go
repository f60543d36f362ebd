package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func exercisePointsStore(t *testing.T, store PointsStore) {
	t.Helper()
	ctx := context.Background()

	balance, err := store.Get(ctx, "frank")
	require.NoError(t, err)
	require.Zero(t, balance)

	balance, err = store.Add(ctx, "frank", 100)
	require.NoError(t, err)
	require.EqualValues(t, 100, balance)

	balance, err = store.Add(ctx, "frank", -50)
	require.NoError(t, err)
	require.EqualValues(t, 50, balance)

	balance, err = store.Get(ctx, "frank")
	require.NoError(t, err)
	require.EqualValues(t, 50, balance)

	other, err := store.Get(ctx, "grace")
	require.NoError(t, err)
	require.Zero(t, other)
}

func TestMemoryPoints(t *testing.T) {
	exercisePointsStore(t, NewMemoryPoints())
}

func TestRedisPoints(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisPoints(redis.RedisConf{Host: mr.Addr(), Type: redis.NodeType})
	require.NoError(t, err)
	exercisePointsStore(t, store)

	raw, err := mr.Get(pointsKey("frank"))
	require.NoError(t, err)
	require.Equal(t, "50", raw)
}

func TestRedisPointsRejectsCorruptBalance(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(pointsKey("heidi"), "lots"))
	store, err := NewRedisPoints(redis.RedisConf{Host: mr.Addr(), Type: redis.NodeType})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "heidi")
	require.Error(t, err)
}

func TestNewPointsStorePicksBackend(t *testing.T) {
	store, err := newPointsStore(DefaultConfig())
	require.NoError(t, err)
	require.IsType(t, &memoryPoints{}, store)

	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.PointsRedisHost = mr.Addr()
	store, err = newPointsStore(cfg)
	require.NoError(t, err)
	require.IsType(t, &redisPoints{}, store)
}
