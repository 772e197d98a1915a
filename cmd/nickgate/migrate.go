// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/nickgate/nickgate/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations for the local account store.`,
		RunE:  runMigrate,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show current migration version",
		RunE:  runMigrateStatus,
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long:  `Roll back every applied migration. WARNING: drops all local account data.`,
		RunE:  runMigrateDown,
	}
	down.Flags().Bool("force", false, "confirm the destructive rollback")
	cmd.AddCommand(down)

	cmd.PersistentFlags().String("database.url", "", "database connection URL (or DATABASE_URL)")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // best effort on CLI exit

	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return oops.Wrap(err)
	}
	if !force {
		return oops.Code("CONFIRMATION_REQUIRED").
			Errorf("migrate down drops all local account data; re-run with --force")
	}

	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // best effort on CLI exit

	cmd.Println("Rolling back migrations...")
	if err := m.Down(); err != nil {
		return err
	}
	cmd.Println("Rollback completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	m, err := openMigrator(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // best effort on CLI exit

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("Version %d (DIRTY - manual intervention required)\n", version)
		return nil
	}
	cmd.Printf("Version %d\n", version)
	return nil
}

// openMigrator resolves the database URL the same way serve does and opens
// a migrator against it.
func openMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	return store.NewMigrator(cfg.Database.URL)
}
