package main

import (
	"fmt"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tallyapp/tally/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Migrations are idempotent; running this against an up-to-date database
is a no-op.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if status {
		version, err := store.SchemaVersion(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		cmd.Printf("schema version %d (latest %d)\n", version, storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrated", "version", storage.ExpectedSchemaVersion)
	return nil
}
