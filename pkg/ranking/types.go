// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ranking implements the competitive leaderboard. Entries are
// append-only: the service only ever accumulates scores, it never mutates
// or deletes them. Entries rank within a difficulty by ascending time
// (lower is better); ties break in a stable but unspecified store order.
package ranking

import (
	"context"
	"time"
)

// MaxResults caps every leaderboard read.
const MaxResults = 100

// Entry is a single leaderboard record.
type Entry struct {
	// Nickname is the player's display string. Not unique.
	Nickname string `json:"nickname"`

	// Difficulty partitions the leaderboard. The game uses easy, normal
	// and hard, but membership is not enforced server-side.
	Difficulty string `json:"difficulty"`

	// Time is the score in seconds. Lower is better.
	Time float64 `json:"time"`

	// Timestamp is the server-assigned submission time. Informational
	// only; it plays no part in ranking.
	Timestamp time.Time `json:"timestamp"`
}

// Store persists and ranks leaderboard entries.
type Store interface {
	// Add appends an entry, stamping it with the server clock.
	Add(ctx context.Context, entry *Entry) error

	// TopByDifficulty returns up to MaxResults entries for a difficulty,
	// ordered ascending by time.
	TopByDifficulty(ctx context.Context, difficulty string) ([]Entry, error)

	// TopByPlayer returns up to MaxResults entries matching both the
	// difficulty and nickname, ordered ascending by time. An unknown
	// nickname matches nothing.
	TopByPlayer(ctx context.Context, difficulty, nickname string) ([]Entry, error)

	// All returns every stored entry in submission order. Consumers are
	// expected to shape-check the results themselves.
	All(ctx context.Context) ([]Entry, error)

	// Ping checks store connectivity (health check).
	Ping(ctx context.Context) error
}
