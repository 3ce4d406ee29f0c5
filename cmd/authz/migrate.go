package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nebari-dev/authz/internal/db"
	"github.com/nebari-dev/authz/internal/rbac"
	"github.com/nebari-dev/authz/internal/server"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the role, organization and audit tables, the case-insensitive
name indexes and the default access policy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := server.Open()
		if err != nil {
			return err
		}

		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if _, err := rbac.NewEnforcer(database, slog.Default()); err != nil {
			return fmt.Errorf("failed to seed access policy: %w", err)
		}

		fmt.Println("Database migrations completed")
		return nil
	},
}
