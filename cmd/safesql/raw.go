package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql"
)

var rawCmd = &cobra.Command{
	Use:   "raw <sql>",
	Short: "Run an allow-listed raw statement",
	Long: `Run a raw SQL statement. Requires expose_raw and the exact statement text
in allowed_queries (or allowed_queries: ALL).`,
	Example: `  safesql raw "SELECT id FROM users"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stmt := strings.Join(args, " ")
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			return c.Raw(ctx, stmt)
		})
	},
}
