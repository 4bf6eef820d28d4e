package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quickbar/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const revenueKey = "stats:revenue"

// RedisStats aggregates order events into per-venue counters. Amounts are kept in cents.
type RedisStats struct {
	Client   *redis.Client
	DailyTTL time.Duration
	location *time.Location
}

func NewRedisStats(client *redis.Client) *RedisStats {
	return &RedisStats{Client: client, DailyTTL: 30 * 24 * time.Hour, location: time.UTC}
}

func (s *RedisStats) DailyKey(venueID string, day time.Time) string {
	return fmt.Sprintf("stats:daily:%s:%s", day.In(s.location).Format("2006-01-02"), venueID)
}

// Record counts one lifecycle event. Revenue is booked when the order is placed.
func (s *RedisStats) Record(ctx context.Context, ev domain.OrderEvent) error {
	var field string
	switch ev.Type {
	case domain.EventOrderCreated:
		field = "orders"
	case domain.EventOrderReady:
		field = "ready"
	case domain.EventOrderCollected:
		field = "collected"
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	key := s.DailyKey(ev.VenueID, ev.Timestamp)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, field, 1)
		if ev.Type == domain.EventOrderCreated {
			cents := domain.Money(ev.Total).Shift(2).IntPart()
			pipe.HIncrBy(ctx, key, "revenue_cents", cents)
			pipe.HIncrBy(ctx, revenueKey, ev.VenueID, cents)
		}
		pipe.Expire(ctx, key, s.DailyTTL)
		return nil
	})
	return err
}

func (s *RedisStats) Daily(ctx context.Context, venueID string, day time.Time) (domain.VenueStats, error) {
	values, err := s.Client.HGetAll(ctx, s.DailyKey(venueID, day)).Result()
	if err != nil {
		return domain.VenueStats{}, err
	}
	return domain.VenueStats{
		Orders:    parseCount(values["orders"]),
		Ready:     parseCount(values["ready"]),
		Collected: parseCount(values["collected"]),
		Revenue:   centsToAmount(parseCount(values["revenue_cents"])),
	}, nil
}

// Revenue is the all-time total over every venue.
func (s *RedisStats) Revenue(ctx context.Context) (float64, error) {
	values, err := s.Client.HVals(ctx, revenueKey).Result()
	if err != nil {
		return 0, err
	}
	var cents int64
	for _, v := range values {
		cents += parseCount(v)
	}
	return centsToAmount(cents), nil
}

func (s *RedisStats) VenueRevenue(ctx context.Context, venueID string) (float64, error) {
	value, err := s.Client.HGet(ctx, revenueKey, venueID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return centsToAmount(parseCount(value)), nil
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func centsToAmount(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
