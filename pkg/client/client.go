// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client is the game-side library. It owns the client half of the
// login handoff protocol: generate a correlation token, subscribe to it,
// open the provider consent view, and wait for the server to signal the
// resolved identity. It also reads and writes the leaderboard directly
// through the store, the way the shipped game bundle does.
package client

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/ranking"
)

// DefaultWatchTimeout bounds a login wait when the caller's context has
// no deadline of its own. The exchange handler leaves a watcher waiting
// forever on upstream failure, so an unbounded wait is never acceptable.
const DefaultWatchTimeout = 5 * time.Minute

// defaultAuthorizeURL is the provider consent endpoint the game ships with.
const defaultAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"

// Client bundles the store handles and OAuth client settings the game
// needs. Construct once at startup and share; the zero value is not usable.
type Client struct {
	login        login.Store
	ranking      ranking.Store
	creds        *Credentials
	rdb          redis.UniversalClient
	watchTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithWatchTimeout overrides the default login wait deadline.
func WithWatchTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.watchTimeout = timeout
	}
}

// New connects to the store named in the credentials. One connection
// backs both the login watcher and the leaderboard.
func New(ctx context.Context, creds *Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     creds.StoreAddr,
		Username: creds.StoreUsername,
		Password: creds.StorePassword,
		DB:       creds.StoreDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	prefix := creds.KeyPrefix
	if prefix == "" {
		prefix = login.DefaultKeyPrefix
	}

	c := newWithStores(creds,
		login.NewRedisStoreWithClient(rdb, prefix),
		ranking.NewRedisStore(rdb, prefix),
		opts...)
	c.rdb = rdb
	return c, nil
}

// NewWithStores builds a Client on pre-constructed stores. This is useful
// for testing with miniredis.
func NewWithStores(creds *Credentials, loginStore login.Store, rankingStore ranking.Store, opts ...Option) *Client {
	return newWithStores(creds, loginStore, rankingStore, opts...)
}

func newWithStores(creds *Credentials, loginStore login.Store, rankingStore ranking.Store, opts ...Option) *Client {
	c := &Client{
		login:        loginStore,
		ranking:      rankingStore,
		creds:        creds,
		watchTimeout: DefaultWatchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the store connection. A Client built on injected
// stores leaves their lifecycle to the caller.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// NewLoginToken generates a fresh correlation token. Tokens are
// single-use; every login attempt must generate its own.
func (c *Client) NewLoginToken() string {
	return uuid.NewString()
}

// LoginURL builds the provider consent URL for a login attempt, with the
// correlation token embedded as the OAuth state. The game opens this in a
// popup after WatchLogin's subscription is established — subscribing
// first is what guarantees the signaling write is never missed.
func (c *Client) LoginURL(token string) string {
	authorize := c.creds.AuthorizeURL
	if authorize == "" {
		authorize = defaultAuthorizeURL
	}

	params := url.Values{
		"client_id":     {c.creds.OAuthClientID},
		"redirect_uri":  {c.creds.RedirectURI},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {token},
	}
	return authorize + "?" + params.Encode()
}

// WatchLogin waits for the signaling record of a login attempt and
// returns the resolved identity. When ctx carries no deadline, the
// default watch timeout applies; the wait is always bounded.
func (c *Client) WatchLogin(ctx context.Context, token string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.watchTimeout)
		defer cancel()
	}
	return c.login.Await(ctx, token)
}

// SubmitScore appends a leaderboard entry through the store.
func (c *Client) SubmitScore(ctx context.Context, nickname, difficulty string, score float64) error {
	return c.ranking.Add(ctx, &ranking.Entry{
		Nickname:   nickname,
		Difficulty: difficulty,
		Time:       score,
	})
}

// ReadAllScores reads every leaderboard entry and drops anything that
// fails the shape check, so a malformed document written by an old or
// misbehaving client cannot break rendering.
func (c *Client) ReadAllScores(ctx context.Context) ([]ranking.Entry, error) {
	entries, err := c.ranking.All(ctx)
	if err != nil {
		return nil, err
	}

	valid := make([]ranking.Entry, 0, len(entries))
	for _, entry := range entries {
		if !validEntry(entry) {
			continue
		}
		valid = append(valid, entry)
	}
	return valid, nil
}

func validEntry(e ranking.Entry) bool {
	if e.Nickname == "" || e.Difficulty == "" {
		return false
	}
	if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) || e.Time < 0 {
		return false
	}
	return e.Timestamp.Unix() > 0
}
