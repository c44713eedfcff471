// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sweeplabs/sweepd/pkg/api"
	"github.com/sweeplabs/sweepd/pkg/config"
	"github.com/sweeplabs/sweepd/pkg/logger"
	"github.com/sweeplabs/sweepd/pkg/login"
	"github.com/sweeplabs/sweepd/pkg/ranking"
	"github.com/sweeplabs/sweepd/pkg/upstream"
)

// newServeCmd creates the serve command for starting the sweepd server.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sweepd server",
		Long: `Start the sweepd server.

The server exposes the OAuth login handoff endpoint and the leaderboard
API, and runs the background sweeper that removes login signaling
records older than the retention window.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides config)")
	cmd.Flags().StringP("config", "c", "", "Path to sweepd configuration file")

	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}
	if address := viper.GetString("address"); address != "" {
		cfg.Address = address
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Infof("Starting sweepd on %s", cfg.Address)
	logger.Infof("Store: %s (prefix %q)", cfg.Store.Addr, cfg.Store.KeyPrefix)
	logger.Infof("Retention: window %s, sweep period %s", cfg.Retention.Window, cfg.Retention.Period)

	// One Redis client backs both stores.
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Store.Addr,
		Username:     cfg.Store.Username,
		Password:     cfg.Store.Password,
		DB:           cfg.Store.DB,
		DialTimeout:  login.DefaultDialTimeout,
		ReadTimeout:  login.DefaultReadTimeout,
		WriteTimeout: login.DefaultWriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer func() { _ = client.Close() }()

	loginStore := login.NewRedisStoreWithClient(client, cfg.Store.KeyPrefix)
	rankingStore := ranking.NewRedisStore(client, cfg.Store.KeyPrefix)

	provider, err := upstream.NewOIDCProvider(ctx, cfg.UpstreamConfig())
	if err != nil {
		return fmt.Errorf("failed to set up identity provider: %w", err)
	}

	sweeper := login.NewSweeper(loginStore,
		login.WithRetentionWindow(cfg.Retention.Window),
		login.WithSweepPeriod(cfg.Retention.Period),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return api.Serve(ctx, cfg.Address, provider, loginStore, rankingStore)
	})
	group.Go(func() error {
		return sweeper.Run(ctx)
	})

	// A canceled context is the normal shutdown path.
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}
