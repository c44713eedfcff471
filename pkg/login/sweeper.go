// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package login

import (
	"context"
	"time"

	"github.com/sweeplabs/sweepd/pkg/logger"
)

// Retention defaults: records older than the window are deleted, checked
// once per period.
const (
	DefaultRetentionWindow = 60 * time.Minute
	DefaultSweepPeriod     = 60 * time.Minute
)

// Sweeper periodically deletes signaling records older than the retention
// window, bounding the correlation store's size and preventing stale-token
// replay. A failed sweep is not retried early; the next scheduled run
// picks up whatever remains.
type Sweeper struct {
	store  Store
	window time.Duration
	period time.Duration
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithRetentionWindow overrides the maximum record age.
func WithRetentionWindow(window time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.window = window
	}
}

// WithSweepPeriod overrides the interval between sweeps.
func WithSweepPeriod(period time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.period = period
	}
}

// NewSweeper creates a Sweeper over the given store.
func NewSweeper(store Store, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:  store,
		window: DefaultRetentionWindow,
		period: DefaultSweepPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately and then on every period tick until ctx is
// canceled. It always returns ctx.Err().
func (s *Sweeper) Run(ctx context.Context) error {
	logger.Infow("starting retention sweeper", "window", s.window, "period", s.period)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("retention sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs a single retention pass. Errors are logged, never fatal;
// partially swept batches self-heal on the next run.
func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.window)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Errorw("retention sweep incomplete", "deleted", deleted, "err", err)
		return
	}
	if deleted > 0 {
		logger.Infow("retention sweep complete", "deleted", deleted, "cutoff", cutoff)
	}
}
