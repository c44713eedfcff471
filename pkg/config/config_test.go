// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeplabs/sweepd/pkg/login"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "localhost:6379", cfg.Store.Addr)
	assert.Equal(t, login.DefaultKeyPrefix, cfg.Store.KeyPrefix)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.Issuer)
	assert.Equal(t, 60*time.Minute, cfg.Retention.Window)
	assert.Equal(t, 60*time.Minute, cfg.Retention.Period)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sweepd.yaml")
	contents := `
address: ":9090"
store:
  addr: "redis.internal:6379"
  key_prefix: "game:"
oauth:
  client_id: "game-client"
  client_secret: "shh"
  redirect_uri: "https://game.example.com/oauth/callback"
retention:
  window: 30m
  period: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, "redis.internal:6379", cfg.Store.Addr)
	assert.Equal(t, "game:", cfg.Store.KeyPrefix)
	assert.Equal(t, "game-client", cfg.OAuth.ClientID)
	assert.Equal(t, 30*time.Minute, cfg.Retention.Window)
	assert.Equal(t, 5*time.Minute, cfg.Retention.Period)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SWEEPD_ADDRESS", ":7070")
	t.Setenv("SWEEPD_STORE_ADDR", "env.internal:6379")
	t.Setenv("SWEEPD_OAUTH_CLIENT_ID", "env-client")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, "env.internal:6379", cfg.Store.Addr)
	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Address: ":8080",
			Store:   StoreConfig{Addr: "localhost:6379"},
			OAuth: OAuthConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				RedirectURI:  "https://example.com/cb",
			},
			Retention: RetentionConfig{Window: time.Hour, Period: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing address",
			mutate:  func(c *Config) { c.Address = "" },
			wantErr: "listen address is required",
		},
		{
			name:    "missing store addr",
			mutate:  func(c *Config) { c.Store.Addr = "" },
			wantErr: "store address is required",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.OAuth.ClientSecret = "" },
			wantErr: "oauth client secret is required",
		},
		{
			name:    "zero retention window",
			mutate:  func(c *Config) { c.Retention.Window = 0 },
			wantErr: "retention window must be positive",
		},
		{
			name:    "negative sweep period",
			mutate:  func(c *Config) { c.Retention.Period = -time.Minute },
			wantErr: "retention period must be positive",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
