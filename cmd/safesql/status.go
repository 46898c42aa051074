package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql/internal/cli"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the database connection",
	Long:  `Run the health-check statement and report the database status as JSON.`,
	Example: `  # Check status
  safesql status --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		client, conn, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		s := client.Status(ctx)
		if !quiet {
			if err := cli.WriteJSON(os.Stdout, s); err != nil {
				return err
			}
		}
		if !s.OK() {
			return cli.DBConnectError("health check failed", errors.New(s.DebugInfo))
		}
		return nil
	},
}
