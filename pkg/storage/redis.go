package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis, for deployments where the order
// plan must survive restarts or be read by more than one instance of the
// reporting layer. Snapshots expire after the configured TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

const redisKeyPrefix = "bunplan:snapshot:"

// NewRedisStore creates a Redis-backed store and verifies the connection.
//
// addr is the server address (e.g. "localhost:6379"), password may be empty,
// db is the database number, and ttl of 0 defaults to 48 hours (a snapshot
// older than two daily retrains is not worth serving).
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if ttl == 0 {
		ttl = 48 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Put stores a snapshot under its location key with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, snapshot Snapshot) error {
	if snapshot.Location == "" {
		return fmt.Errorf("snapshot location cannot be empty")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+snapshot.Location, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot for %q: %w", snapshot.Location, err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a location. found is
// false when the key does not exist or has expired.
func (s *RedisStore) GetLatest(ctx context.Context, location string) (Snapshot, bool, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+location).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("get snapshot for %q: %w", location, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshal snapshot for %q: %w", location, err)
	}
	return snapshot, true, nil
}

// Ping verifies the connection is still alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
