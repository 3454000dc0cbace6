// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"
)

// tokenIssuer issues a token for an existing account.
type tokenIssuer interface {
	IssueTokenFor(ctx context.Context, email string) (string, error)
}

// NewTokenCmd creates the token subcommand.
func NewTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token EMAIL",
		Short: "Issue an access token for an existing user",
		Long: `Issue an access token for the user registered under EMAIL without
checking a password. Operator tool for smoke tests and scripted access.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCommandConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := cfg.Logger(serviceName)
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			tokens, err := newTokenIssuer(cfg, logger)
			if err != nil {
				return err
			}
			authSvc, err := newAuthService(cfg, pool, tokens, logger)
			if err != nil {
				return err
			}
			return printToken(cmd, authSvc, args[0])
		},
	}
}

func printToken(cmd *cobra.Command, issuer tokenIssuer, email string) error {
	token, err := issuer.IssueTokenFor(cmd.Context(), email)
	if err != nil {
		return err
	}
	cmd.Println(token)
	return nil
}
