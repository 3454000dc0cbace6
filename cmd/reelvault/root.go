// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"github.com/spf13/cobra"
)

// serviceName tags every log record.
const serviceName = "reelvault"

// NewRootCmd creates the root command for the reelvault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reelvault",
		Short: "Reelvault - movie catalog API with accounts",
		Long: `Reelvault serves a movie catalog over HTTP with account registration,
password login, and role-gated administration.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")
	cmd.PersistentFlags().String("env", "", "deployment environment (development or production)")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log-format", "", "log format (json or text)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewTokenCmd())

	return cmd
}

// loadCommandConfig loads and validates configuration for cmd, honoring
// both persistent and local flags.
func loadCommandConfig(cmd *cobra.Command) (*Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}
	cfg, err := LoadConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
