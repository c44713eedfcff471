// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package login implements the cross-context login handoff for the game
// client. A browser tab generates a correlation token, subscribes to it,
// and sends the player through the identity provider's consent flow in a
// separate window. When the provider redirects back, the server resolves
// the player's identity and writes a signaling record under the token;
// the waiting tab observes the write through the store's change channel.
package login

import (
	"context"
	"errors"
	"time"
)

// Record is the signaling record that communicates exchange completion
// from the server to the waiting client. Records are written once and
// never updated; the retention sweeper is the only deletion path.
type Record struct {
	// Token is the client-generated opaque correlation token. It is the
	// record's key and the sole authorization proof for reading the
	// identity, so it must carry enough entropy to be unguessable.
	Token string

	// Identity is the resolved user identity (the verified email from
	// the identity provider).
	Identity string

	// CreatedAt is assigned from the server clock at write time. It is
	// used only for retention, never supplied by the client.
	CreatedAt time.Time
}

// ErrNotFound is returned when no signaling record exists for a token.
var ErrNotFound = errors.New("signaling record not found")

// ErrWatch is returned when the store's change subscription fails. The
// watch is not retried; callers may retry with a fresh token.
var ErrWatch = errors.New("signaling watch failed")

// Store is the correlation store holding at most one signaling record
// per token.
type Store interface {
	// Put writes the record under its token. A second write for the same
	// token silently overwrites the first.
	Put(ctx context.Context, rec *Record) error

	// Get reads the record for a token, or ErrNotFound.
	Get(ctx context.Context, token string) (*Record, error)

	// Await blocks until a record exists for the token and returns its
	// identity. The subscription is established before the first read, so
	// a write is never missed regardless of exchange latency. Await has no
	// intrinsic timeout; cancellation and deadlines come from ctx.
	Await(ctx context.Context, token string) (string, error)

	// DeleteOlderThan removes every record created strictly before cutoff
	// and reports how many were deleted. Partial failure leaves the
	// remainder in place for a later call.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Ping checks store connectivity (health check).
	Ping(ctx context.Context) error

	// Close releases the store's connections.
	Close() error
}
