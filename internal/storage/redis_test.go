package storage_test

import (
	"context"
	"testing"
	"time"

	"quickbar/internal/domain"
	"quickbar/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSessionStorage(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	sessions := storage.NewRedisSessionStorage(client, time.Hour)
	phone := sessions.ForDevice("phone-1")
	other := sessions.ForDevice("phone-2")

	_, ok, err := phone.Get(ctx, "currentOrderId_demo")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, phone.Set(ctx, "currentOrderId_demo", "o1"))
	value, ok, err := phone.Get(ctx, "currentOrderId_demo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "o1", value)

	assert.True(t, mr.Exists("device:phone-1:currentOrderId_demo"))
	assert.Equal(t, time.Hour, mr.TTL("device:phone-1:currentOrderId_demo"))

	_, ok, err = other.Get(ctx, "currentOrderId_demo")
	require.NoError(t, err)
	assert.False(t, ok, "devices must not share keys")

	require.NoError(t, phone.Remove(ctx, "currentOrderId_demo"))
	_, ok, err = phone.Get(ctx, "currentOrderId_demo")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)
	require.NoError(t, phone.Set(ctx, "currentOrderNumber_demo", "000042"))
	mr.FastForward(2 * time.Hour)
	_, ok, err = phone.Get(ctx, "currentOrderNumber_demo")
	require.NoError(t, err)
	assert.False(t, ok, "keys expire after the ttl")
}

func TestRedisSessionStorage_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, _, err = storage.NewRedisSessionStorage(client, time.Hour).ForDevice("d").Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestMemorySessionStorage(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemorySessionStorage()

	require.NoError(t, s.Set(ctx, "k", "v"))
	value, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	revocations := storage.NewRedisRevocations(client)

	revoked, err := revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("revoked:jti-2"), "expired tokens need no revocation entry")
}

func TestRedisStats(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	stats := storage.NewRedisStats(client)

	day := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	events := []domain.OrderEvent{
		{Type: domain.EventOrderCreated, VenueID: "demo", OrderID: "o1", Total: 25.00, Timestamp: day},
		{Type: domain.EventOrderCreated, VenueID: "demo", OrderID: "o2", Total: 28.75, Timestamp: day},
		{Type: domain.EventOrderReady, VenueID: "demo", OrderID: "o1", Timestamp: day},
		{Type: domain.EventOrderCollected, VenueID: "demo", OrderID: "o1", Timestamp: day},
		{Type: domain.EventOrderCreated, VenueID: "other", OrderID: "o3", Total: 0.10, Timestamp: day},
	}
	for _, ev := range events {
		require.NoError(t, stats.Record(ctx, ev))
	}

	daily, err := stats.Daily(ctx, "demo", day)
	require.NoError(t, err)
	assert.Equal(t, domain.VenueStats{Orders: 2, Ready: 1, Collected: 1, Revenue: 53.75}, daily)

	total, err := stats.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 53.85, total)

	venue, err := stats.VenueRevenue(ctx, "nowhere")
	require.NoError(t, err)
	assert.Zero(t, venue)

	assert.Error(t, stats.Record(ctx, domain.OrderEvent{Type: "order_refunded", VenueID: "demo"}))
}
