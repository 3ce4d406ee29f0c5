package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebari-dev/authz/internal/server"
)

var m2mTokenCmd = &cobra.Command{
	Use:   "m2m-token",
	Short: "Print a machine-to-machine access token",
	Long: `Obtain a client-credentials token for the configured client and audience
and print it. Tokens are cached (in Valkey when VALKEY_ADDR is set) until they
expire or TOKEN_CACHE_TIME elapses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, _, err := server.Open()
		if err != nil {
			return err
		}

		client, closeCache, err := server.NewM2MClient(appCfg)
		if err != nil {
			return err
		}
		defer closeCache()

		token, err := client.Token(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}
