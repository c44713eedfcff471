// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the sweepd command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeplabs/sweepd/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "sweepd",
	DisableAutoGenTag: true,
	Short:             "Backend server for the minesweeper game",
	Long: `sweepd is the backend server for the minesweeper game. It provides:

- The OAuth login handoff endpoint that resolves player identities
- The leaderboard API for submitting and reading ranked times
- A background sweeper that expires stale login signaling records`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the sweepd CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for sweepd",
		Run: func(_ *cobra.Command, _ []string) {
			logger.Infof("sweepd version: %s", getVersion())
		},
	}
}

// getVersion returns the version string (will be set at build time)
func getVersion() string {
	// This will be replaced with actual version info using ldflags
	return "dev"
}
