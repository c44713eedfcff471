// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/ranking"
)

func newTestClient(t *testing.T) (*Client, login.Store, ranking.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	loginStore := login.NewRedisStoreWithClient(rdb, "test:")
	rankingStore := ranking.NewRedisStore(rdb, "test:")

	creds := &Credentials{
		StoreAddr:     mr.Addr(),
		KeyPrefix:     "test:",
		OAuthClientID: "game-client",
		RedirectURI:   "https://game.example.com/oauth/callback",
	}
	return NewWithStores(creds, loginStore, rankingStore), loginStore, rankingStore
}

func TestEncodeDecodeCredentials(t *testing.T) {
	t.Parallel()

	creds := &Credentials{
		StoreAddr:     "store.example.com:6379",
		StorePassword: "hunter2",
		KeyPrefix:     "sweepd:",
		OAuthClientID: "game-client",
		RedirectURI:   "https://game.example.com/oauth/callback",
	}

	encoded, err := EncodeCredentials(creds)
	require.NoError(t, err)

	decoded, err := DecodeCredentials(encoded)
	require.NoError(t, err)
	assert.Equal(t, creds, decoded)
}

func TestDecodeCredentialsRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeCredentials("not base64!!!")
	assert.ErrorContains(t, err, "failed to decode credentials")

	_, err = DecodeCredentials("bm90IGpzb24=")
	assert.ErrorContains(t, err, "failed to parse credentials")
}

func TestCredentialsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creds   *Credentials
		wantErr string
	}{
		{
			name: "valid",
			creds: &Credentials{
				StoreAddr:     "localhost:6379",
				OAuthClientID: "id",
				RedirectURI:   "https://example.com/cb",
			},
		},
		{
			name:    "missing store address",
			creds:   &Credentials{OAuthClientID: "id", RedirectURI: "https://example.com/cb"},
			wantErr: "store address is required",
		},
		{
			name:    "missing client ID",
			creds:   &Credentials{StoreAddr: "localhost:6379", RedirectURI: "https://example.com/cb"},
			wantErr: "oauth client ID is required",
		},
		{
			name:    "missing redirect URI",
			creds:   &Credentials{StoreAddr: "localhost:6379", OAuthClientID: "id"},
			wantErr: "redirect URI is required",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.creds.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewLoginTokenIsUniquePerAttempt(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t)
	first := c.NewLoginToken()
	second := c.NewLoginToken()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestLoginURLCarriesTokenAsState(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t)
	token := c.NewLoginToken()

	parsed, err := url.Parse(c.LoginURL(token))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, token, query.Get("state"))
	assert.Equal(t, "game-client", query.Get("client_id"))
	assert.Equal(t, "https://game.example.com/oauth/callback", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "openid email profile", query.Get("scope"))
}

func TestLoginURLHonorsCustomAuthorizeEndpoint(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t)
	c.creds.AuthorizeURL = "https://idp.example.com/authorize"

	parsed, err := url.Parse(c.LoginURL("tok"))
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", parsed.Host)
	assert.Equal(t, "tok", parsed.Query().Get("state"))
}

func TestWatchLoginResolvesServerWrite(t *testing.T) {
	t.Parallel()

	c, loginStore, _ := newTestClient(t)
	token := c.NewLoginToken()

	done := make(chan struct{})
	var identity string
	var watchErr error
	go func() {
		defer close(done)
		identity, watchErr = c.WatchLogin(context.Background(), token)
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, loginStore.Put(context.Background(), &login.Record{
		Token:    token,
		Identity: "player@example.com",
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not resolve")
	}
	require.NoError(t, watchErr)
	assert.Equal(t, "player@example.com", identity)
}

func TestWatchLoginBoundedWhenContextHasNoDeadline(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewWithStores(
		&Credentials{StoreAddr: mr.Addr(), OAuthClientID: "id", RedirectURI: "https://example.com/cb"},
		login.NewRedisStoreWithClient(rdb, "test:"),
		ranking.NewRedisStore(rdb, "test:"),
		WithWatchTimeout(200*time.Millisecond),
	)

	start := time.Now()
	_, err := c.WatchLogin(context.Background(), "never-written")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSubmitAndReadAllScores(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SubmitScore(ctx, "alice", "easy", 12.3))
	require.NoError(t, c.SubmitScore(ctx, "bob", "hard", 99.9))

	entries, err := c.ReadAllScores(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.Nickname)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestReadAllScoresDropsMalformedEntries(t *testing.T) {
	t.Parallel()

	c, _, rankingStore := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SubmitScore(ctx, "alice", "easy", 12.3))
	// An entry with no nickname is writable through the raw store but
	// must never reach the caller.
	require.NoError(t, rankingStore.Add(ctx, &ranking.Entry{
		Nickname:   "",
		Difficulty: "easy",
		Time:       1.0,
	}))

	entries, err := c.ReadAllScores(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Nickname)
}
