// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweeplabs/sweepd/pkg/logger"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// DefaultKeyPrefix namespaces all sweepd keys in a shared Redis.
const DefaultKeyPrefix = "sweepd:"

// RedisConfig holds Redis connection configuration for runtime use.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Username and Password authenticate against Redis ACLs. Both may be
	// empty for an unauthenticated server.
	Username string
	Password string

	// DB selects the Redis logical database.
	DB int

	// KeyPrefix namespaces keys, e.g. "sweepd:".
	KeyPrefix string

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStore implements Store on a Redis backend. The signaling record
// lives as a JSON document keyed by token, a sorted set indexes tokens by
// creation time for the retention sweep, and every write is published on
// a per-token channel so an already-subscribed watcher observes it.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// storedRecord is the serializable wrapper for Record. The field names
// are the store's wire format and are shared with the game client.
type storedRecord struct {
	Token     string `json:"token"`
	Identity  string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// NewRedisStore creates a Redis-backed correlation store and verifies
// connectivity before returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the client to prevent resource leak
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// NewRedisStoreWithClient creates a RedisStore with a pre-configured client.
// This is useful for testing with miniredis.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity (health check).
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) recordKey(token string) string {
	return s.keyPrefix + "login:" + token
}

func (s *RedisStore) createdIndexKey() string {
	return s.keyPrefix + "login:created"
}

func (s *RedisStore) watchChannel(token string) string {
	return s.keyPrefix + "login:watch:" + token
}

// Put writes the signaling record, indexes it for retention and notifies
// any subscribed watcher. The three operations run in one pipeline; the
// per-document write is atomic, the batch is not transactional.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}
	if rec.Token == "" {
		return errors.New("record token cannot be empty")
	}

	data, err := json.Marshal(storedRecord{
		Token:     rec.Token,
		Identity:  rec.Identity,
		CreatedAt: rec.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal signaling record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.recordKey(rec.Token), data, 0)
	pipe.ZAdd(ctx, s.createdIndexKey(), redis.Z{
		Score:  float64(rec.CreatedAt.Unix()),
		Member: rec.Token,
	})
	pipe.Publish(ctx, s.watchChannel(rec.Token), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write signaling record: %w", err)
	}

	return nil
}

// Get reads the signaling record for a token.
func (s *RedisStore) Get(ctx context.Context, token string) (*Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get signaling record: %w", err)
	}

	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signaling record: %w", err)
	}

	return &Record{
		Token:     stored.Token,
		Identity:  stored.Identity,
		CreatedAt: time.Unix(stored.CreatedAt, 0),
	}, nil
}

// Await subscribes to the token's change channel, then reads the document
// once to catch a write that landed before the subscription, then blocks
// until the record is published or ctx is done. It resolves with the
// identity exactly once and always detaches the subscription on return.
func (s *RedisStore) Await(ctx context.Context, token string) (string, error) {
	sub := s.client.Subscribe(ctx, s.watchChannel(token))
	defer func() { _ = sub.Close() }()

	// Wait for the subscription confirmation so the exchange handler's
	// write cannot race past an unestablished subscriber.
	if _, err := sub.Receive(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWatch, err)
	}

	rec, err := s.Get(ctx, token)
	switch {
	case err == nil:
		return rec.Identity, nil
	case errors.Is(err, ErrNotFound):
		// No record yet, keep waiting.
	default:
		return "", err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return "", fmt.Errorf("%w: subscription closed", ErrWatch)
			}
			var stored storedRecord
			if err := json.Unmarshal([]byte(msg.Payload), &stored); err != nil {
				return "", fmt.Errorf("%w: malformed notification: %v", ErrWatch, err)
			}
			logger.Debugw("signaling record observed", "token", token)
			return stored.Identity, nil
		}
	}
}

// DeleteOlderThan removes every signaling record created strictly before
// cutoff. Documents are deleted before their index entries, so a failed
// document delete stays indexed and is retried on the next sweep. The
// first failure is reported after the batch completes.
func (s *RedisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tokens, err := s.client.ZRangeByScore(ctx, s.createdIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to query expired records: %w", err)
	}

	deleted := 0
	var firstErr error
	for _, token := range tokens {
		if err := s.client.Del(ctx, s.recordKey(token)).Err(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to delete record %q: %w", token, err)
			}
			continue
		}
		// Best effort; a stale index entry is harmless and re-swept later.
		_ = s.client.ZRem(ctx, s.createdIndexKey(), token).Err()
		deleted++
	}

	return deleted, firstErr
}

// Compile-time interface compliance check.
var _ Store = (*RedisStore)(nil)
