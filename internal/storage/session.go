package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStorage is device-scoped key/value storage. Keys live under
// "device:{id}:" and expire after TTL of inactivity.
type RedisSessionStorage struct {
	Client *redis.Client
	TTL    time.Duration
	prefix string
}

func NewRedisSessionStorage(client *redis.Client, ttl time.Duration) *RedisSessionStorage {
	return &RedisSessionStorage{Client: client, TTL: ttl}
}

// ForDevice returns the storage view of one device.
func (s *RedisSessionStorage) ForDevice(deviceID string) *RedisSessionStorage {
	return &RedisSessionStorage{Client: s.Client, TTL: s.TTL, prefix: "device:" + deviceID + ":"}
}

func (s *RedisSessionStorage) Key(key string) string {
	return s.prefix + key
}

func (s *RedisSessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.Client.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisSessionStorage) Set(ctx context.Context, key, value string) error {
	return s.Client.Set(ctx, s.Key(key), value, s.TTL).Err()
}

func (s *RedisSessionStorage) Remove(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Key(key)).Err()
}

// MemorySessionStorage keeps one device's keys in process.
type MemorySessionStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{values: make(map[string]string)}
}

func (s *MemorySessionStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemorySessionStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemorySessionStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
