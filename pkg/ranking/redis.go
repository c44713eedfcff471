// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis backend. Each entry lives as a
// JSON document under a store-assigned id; sorted sets index the ids by
// time per difficulty, per difficulty+nickname, and by submission time
// overall. Zset ties order lexicographically by id, which supplies the
// stable tiebreak for equal times.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// storedEntry is the serializable wrapper for Entry.
type storedEntry struct {
	Nickname   string  `json:"nickname"`
	Difficulty string  `json:"difficulty"`
	Time       float64 `json:"time"`
	Timestamp  int64   `json:"timestamp"`
}

// NewRedisStore creates a Redis-backed leaderboard store on an existing
// client. The correlation store owns connection construction; both stores
// share one client in practice.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Ping checks Redis connectivity (health check).
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) entryKey(id string) string {
	return s.keyPrefix + "ranking:entry:" + id
}

func (s *RedisStore) difficultyIndexKey(difficulty string) string {
	return s.keyPrefix + "ranking:by-time:" + difficulty
}

func (s *RedisStore) playerIndexKey(difficulty, nickname string) string {
	return s.keyPrefix + "ranking:by-player:" + difficulty + ":" + nickname
}

func (s *RedisStore) allIndexKey() string {
	return s.keyPrefix + "ranking:all"
}

// Add appends the entry. The id is store-assigned so scores with
// identical times keep a stable order, and nothing ever overwrites an
// existing entry.
func (s *RedisStore) Add(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(storedEntry{
		Nickname:   entry.Nickname,
		Difficulty: entry.Difficulty,
		Time:       entry.Time,
		Timestamp:  entry.Timestamp.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ranking entry: %w", err)
	}

	id := uuid.NewString()
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.entryKey(id), data, 0)
	pipe.ZAdd(ctx, s.difficultyIndexKey(entry.Difficulty), redis.Z{Score: entry.Time, Member: id})
	pipe.ZAdd(ctx, s.playerIndexKey(entry.Difficulty, entry.Nickname), redis.Z{Score: entry.Time, Member: id})
	pipe.ZAdd(ctx, s.allIndexKey(), redis.Z{Score: float64(entry.Timestamp.Unix()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store ranking entry: %w", err)
	}

	return nil
}

// TopByDifficulty returns up to MaxResults entries for a difficulty,
// ordered ascending by time.
func (s *RedisStore) TopByDifficulty(ctx context.Context, difficulty string) ([]Entry, error) {
	return s.rangeIndex(ctx, s.difficultyIndexKey(difficulty), MaxResults)
}

// TopByPlayer returns up to MaxResults entries matching difficulty and
// nickname, ordered ascending by time.
func (s *RedisStore) TopByPlayer(ctx context.Context, difficulty, nickname string) ([]Entry, error) {
	return s.rangeIndex(ctx, s.playerIndexKey(difficulty, nickname), MaxResults)
}

// All returns every entry ordered by submission time.
func (s *RedisStore) All(ctx context.Context) ([]Entry, error) {
	return s.rangeIndex(ctx, s.allIndexKey(), -1)
}

// rangeIndex reads up to limit ids from a sorted set (all of them when
// limit is negative) and resolves each to its entry document. Ids whose
// document is missing or unreadable are skipped rather than failing the
// whole read.
func (s *RedisStore) rangeIndex(ctx context.Context, indexKey string, limit int64) ([]Entry, error) {
	stop := limit - 1
	if limit < 0 {
		stop = -1
	}

	ids, err := s.client.ZRange(ctx, indexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking index: %w", err)
	}
	if len(ids) == 0 {
		return []Entry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entryKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking entries: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var stored storedEntry
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			continue
		}
		entries = append(entries, Entry{
			Nickname:   stored.Nickname,
			Difficulty: stored.Difficulty,
			Time:       stored.Time,
			Timestamp:  time.Unix(stored.Timestamp, 0),
		})
	}

	return entries, nil
}

// Compile-time interface compliance check.
var _ Store = (*RedisStore)(nil)
