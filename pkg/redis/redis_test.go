package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return FromClient(client, "test:"), mr
}

func TestAdapter_KeyValue(t *testing.T) {
	rdb, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	got, err := rdb.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, rdb.Del(ctx, "k"))
	_, err = rdb.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestAdapter_Streams(t *testing.T) {
	rdb, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, rdb.XGroupCreateMkStream(ctx, "jobs", "g", "0"))
	_, err := rdb.XAdd(ctx, "jobs", map[string]interface{}{"data": "1"})
	require.NoError(t, err)

	msgs, err := rdb.XReadGroup(ctx, "g", "c1", "jobs", ">", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "1", msgs[0].Values["data"])

	pending, err := rdb.XPending(ctx, "jobs", "g")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	require.NoError(t, rdb.XAck(ctx, "jobs", "g", msgs[0].ID))
	n, err := rdb.XLen(ctx, "jobs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
