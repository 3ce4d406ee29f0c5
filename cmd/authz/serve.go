package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nebari-dev/authz/internal/server"
)

var servePort int

// @title authz API
// @version 1.0
// @description Role and organization management API
// @host localhost:3000
// @BasePath /api/v5
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the authz API server",
	Long: `Start the authz API server.

Examples:
  authz serve                # Listen on the configured port
  authz serve --port 8080    # Override port

Environment variables:
  PORT                     Server port (default: 3000)
  BASE_PATH                API prefix (default: /api/v5)
  DATABASE_URL             sqlite path, postgres:// or mysql:// URL
  AUTH_SECRET              HS256 token secret
  VALID_ISSUERS            Accepted token issuers (JSON array or comma list)
  M2M_AUDIT_USER_ID        User id recorded for machine callers
  M2M_AUDIT_HANDLE         Handle recorded for machine callers
  LOG_LEVEL                debug, info, warn or error`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
