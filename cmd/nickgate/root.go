// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the NickGate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nickgate",
		Short: "NickGate - external SQL authentication for IRC services",
		Long: `NickGate verifies service-account credentials against an external
SQL user store, replacing the services host's native credential check
and materializing local accounts on first successful login.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
