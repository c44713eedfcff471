// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config provides the configuration model for the sweepd server.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// SWEEPD_* environment variables, then command-line flags bound by the
// caller. Later layers win.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/upstream"
)

// Config is the top-level server configuration.
type Config struct {
	// Address is the listen address for the HTTP API, host:port form.
	Address string `mapstructure:"address"`

	Store     StoreConfig     `mapstructure:"store"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Retention RetentionConfig `mapstructure:"retention"`
}

// StoreConfig holds the document store connection settings.
type StoreConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// OAuthConfig holds the upstream identity provider settings.
type OAuthConfig struct {
	Issuer       string   `mapstructure:"issuer"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	Scopes       []string `mapstructure:"scopes"`
}

// RetentionConfig controls the signaling record sweeper.
type RetentionConfig struct {
	Window time.Duration `mapstructure:"window"`
	Period time.Duration `mapstructure:"period"`
}

// setDefaults registers the built-in defaults on a viper instance.
// Every key gets a default, even an empty one, so that environment
// variable overrides are visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("address", ":8080")
	v.SetDefault("store.addr", "localhost:6379")
	v.SetDefault("store.username", "")
	v.SetDefault("store.password", "")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.key_prefix", login.DefaultKeyPrefix)
	v.SetDefault("oauth.issuer", upstream.DefaultIssuer)
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_uri", "")
	v.SetDefault("oauth.scopes", []string{})
	v.SetDefault("retention.window", login.DefaultRetentionWindow)
	v.SetDefault("retention.period", login.DefaultSweepPeriod)
}

// Load reads configuration from the optional file at path, layered with
// SWEEPD_* environment variables and the defaults. An empty path skips
// the file layer entirely.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SWEEPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Store.Addr == "" {
		return fmt.Errorf("store address is required")
	}
	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth client ID is required")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth client secret is required")
	}
	if c.OAuth.RedirectURI == "" {
		return fmt.Errorf("oauth redirect URI is required")
	}
	if c.Retention.Window <= 0 {
		return fmt.Errorf("retention window must be positive")
	}
	if c.Retention.Period <= 0 {
		return fmt.Errorf("retention period must be positive")
	}
	return nil
}

// UpstreamConfig converts the OAuth section into a provider config.
func (c *Config) UpstreamConfig() upstream.Config {
	return upstream.Config{
		Issuer:       c.OAuth.Issuer,
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		RedirectURI:  c.OAuth.RedirectURI,
		Scopes:       c.OAuth.Scopes,
	}
}

// StoreRedisConfig converts the store section into the login store config.
func (c *Config) StoreRedisConfig() login.RedisConfig {
	return login.RedisConfig{
		Addr:      c.Store.Addr,
		Username:  c.Store.Username,
		Password:  c.Store.Password,
		DB:        c.Store.DB,
		KeyPrefix: c.Store.KeyPrefix,
	}
}
