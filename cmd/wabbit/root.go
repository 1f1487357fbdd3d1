// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/wabbit/wabbit/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the wabbit CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wabbit",
		Short: "wabbit - forum backend",
		Long: `wabbit serves the account side of a forum: registration, login,
cookie sessions and password reset by email.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig layers the config file and the command's flags. Without --config
// the file in the XDG config directory is used if present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultFile()
	}
	return config.Load(path, cmd.Flags())
}
