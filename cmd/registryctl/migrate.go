package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"docregistry/internal/platform/database"
	"docregistry/internal/platform/logger"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"Postgres connection string (defaults to $DATABASE_URL)")

	open := func() (*database.Migrator, error) {
		if databaseURL == "" {
			return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		return database.NewMigrator(databaseURL, nil, logger.New(os.Getenv("LOG_LEVEL")))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // nothing left to flush
			return m.Up()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("steps must be a number: %w", err)
				}
				steps = n
			}
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // nothing left to flush
			if err := m.Down(steps); err != nil {
				return err
			}
			cmd.Printf("rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // nothing left to flush
			version, dirty, ok, err := m.Version()
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("no migrations applied")
				return nil
			}
			cmd.Printf("version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
