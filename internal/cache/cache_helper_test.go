package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type binding struct {
	Tenant string `json:"tenant"`
}

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, "binding:"), mr
}

func TestCacheOrExecute_FetchesOnceThenHits(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return binding{Tenant: "north"}, nil
	}

	var first binding
	require.NoError(t, helper.CacheOrExecute(ctx, "7", &first, time.Minute, fetch))
	assert.Equal(t, "north", first.Tenant)
	assert.True(t, mr.Exists("binding:7"))

	var second binding
	require.NoError(t, helper.CacheOrExecute(ctx, "7", &second, time.Minute, fetch))
	assert.Equal(t, "north", second.Tenant)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("binding:7"))
}

func TestCacheOrExecute_FetchErrorNotCached(t *testing.T) {
	helper, mr := newTestHelper(t)
	boom := errors.New("boom")

	var dest binding
	err := helper.CacheOrExecute(context.Background(), "8", &dest, time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("binding:8"))
}

func TestCacheOrExecute_RedisDownStillFetches(t *testing.T) {
	helper, mr := newTestHelper(t)
	mr.Close()

	var dest binding
	err := helper.CacheOrExecute(context.Background(), "9", &dest, time.Minute, func() (interface{}, error) {
		return binding{Tenant: "south"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "south", dest.Tenant)
}

func TestCacheHelper_NilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "x:")
	ctx := context.Background()

	var dest binding
	assert.ErrorIs(t, helper.Get(ctx, "k", &dest), ErrCacheNotAvailable)
	assert.NoError(t, helper.Set(ctx, "k", binding{}, time.Minute))
	assert.NoError(t, helper.InvalidatePattern(ctx, "*"))

	assert.ErrorIs(t, NewCacheManager(nil).HealthCheck(ctx), ErrCacheNotAvailable)
	assert.NoError(t, NewCacheManager(nil).InvalidateBindings(ctx))
}

func TestInvalidatePattern(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "north:1", binding{}, time.Minute))
	require.NoError(t, helper.Set(ctx, "north:2", binding{}, time.Minute))
	require.NoError(t, helper.Set(ctx, "south:1", binding{}, time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "north:*"))

	assert.False(t, mr.Exists("binding:north:1"))
	assert.False(t, mr.Exists("binding:north:2"))
	assert.True(t, mr.Exists("binding:south:1"))
}

func TestCacheManager_InvalidateStaffKeepsOtherStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Staff.Set(ctx, "north:0", []binding{}, time.Minute))
	require.NoError(t, cm.Staff.Set(ctx, "north:10", []binding{}, time.Minute))
	require.NoError(t, cm.Staff.Set(ctx, "northwest:0", []binding{}, time.Minute))
	require.NoError(t, cm.Binding.Set(ctx, "4", binding{Tenant: "north"}, time.Minute))

	require.NoError(t, cm.InvalidateStaff(ctx, "north"))

	assert.False(t, mr.Exists("staff:north:0"))
	assert.False(t, mr.Exists("staff:north:10"))
	assert.True(t, mr.Exists("staff:northwest:0"))
	assert.True(t, mr.Exists("binding:4"))

	require.NoError(t, cm.InvalidateBindings(ctx))
	assert.False(t, mr.Exists("binding:4"))
	assert.True(t, mr.Exists("staff:northwest:0"))
}

func TestConnect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Nil(t, Connect("", logger))
	assert.Nil(t, Connect("://bad", logger))

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := Connect("redis://"+addr, logger)
	require.NotNil(t, client)
	t.Cleanup(func() { client.Close() })
	assert.NoError(t, NewCacheManager(client).HealthCheck(context.Background()))

	mr.Close()
	assert.Nil(t, Connect("redis://"+addr, logger))
}
