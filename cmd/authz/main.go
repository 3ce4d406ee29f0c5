package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/nebari-dev/authz/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "authz",
	Short: "authz - role and organization authorization service",
	Long:  `authz serves the role and organization REST API and manages its data.`,
	Example: `  # Run the API
  authz serve --port 3000

  # Seed the database from a file without prompting
  authz import ./data/demo-data.json --force

  # Dump all roles and organizations as YAML
  authz export ./backup.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)

	serveCmd.GroupID = "server"
	m2mTokenCmd.GroupID = "server"

	migrateCmd.GroupID = "data"
	importCmd.GroupID = "data"
	exportCmd.GroupID = "data"

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(m2mTokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
