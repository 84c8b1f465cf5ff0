package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/learnhub/learnhub/internal/infrastructure/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *postgres.Migrator) error {
			applied, err := m.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last applied migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *postgres.Migrator) error {
			if err := m.Rollback(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back the last migration")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *postgres.Migrator) error {
			if err := m.EnsureMigrationTable(cmd.Context()); err != nil {
				return err
			}
			applied, err := m.GetAppliedMigrations(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, mig := range postgres.GetMigrations() {
				state := "pending"
				if at, ok := applied[mig.Version]; ok {
					state = "applied " + at.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%04d  %-32s %s\n", mig.Version, mig.Name, state)
			}

			var unknown []int
			for v := range applied {
				if !knownMigration(v) {
					unknown = append(unknown, v)
				}
			}
			sort.Ints(unknown)
			for _, v := range unknown {
				fmt.Fprintf(out, "%04d  %-32s %s\n", v, "?", "applied, not embedded in this build")
			}
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func withMigrator(cmd *cobra.Command, fn func(*postgres.Migrator) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	dbConn, err := connectDatabase(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	return fn(postgres.NewMigrator(dbConn))
}

func knownMigration(version int) bool {
	for _, mig := range postgres.GetMigrations() {
		if mig.Version == version {
			return true
		}
	}
	return false
}
