package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/lingo/internal/game"
)

// Record is the durable form of an attempt.
type Record struct {
	LearnerID string        `json:"learnerId"`
	Recorded  bool          `json:"recorded"`
	Snapshot  game.Snapshot `json:"snapshot"`
}

// Snapshots persists attempt snapshots so attempts survive a restart.
type Snapshots interface {
	Put(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	Remove(ctx context.Context, id string) error
}

// RedisSnapshots stores one JSON record per attempt with a TTL.
type RedisSnapshots struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSnapshots connects to Redis and verifies the connection.
func NewRedisSnapshots(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisSnapshots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisSnapshots{client: client, prefix: "lingo:attempt:", ttl: ttl}, nil
}

func (r *RedisSnapshots) key(id string) string { return r.prefix + id }

// Put writes the record, replacing any previous one, and resets its TTL.
func (r *RedisSnapshots) Put(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key(rec.Snapshot.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads a record, or ErrNotFound.
func (r *RedisSnapshots) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode snapshot: %w", err)
	}
	return rec, nil
}

// Remove deletes a record.
func (r *RedisSnapshots) Remove(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// Close closes the client.
func (r *RedisSnapshots) Close() error { return r.client.Close() }
