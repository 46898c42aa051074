package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/cli"
	"github.com/pthm/safesql/pkg/query"
)

// descriptorFlags are shared by every command that reads a query descriptor.
type descriptorFlags struct {
	query string
	file  string
}

func (f *descriptorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.query, "query", "", "inline JSON or YAML descriptor")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "descriptor file (- for stdin)")
}

func (f *descriptorFlags) decode(cmd *cobra.Command, v any) error {
	data, err := cli.ReadDescriptor(f.query, f.file, cmd.InOrStdin())
	if err != nil {
		return cli.GeneralError("reading descriptor", err)
	}
	if err := cli.DecodeDescriptor(data, v); err != nil {
		return cli.ValidationError("invalid descriptor", err)
	}
	return nil
}

var (
	selectFlags descriptorFlags
	countFlags  descriptorFlags
	insertFlags descriptorFlags
	updateFlags descriptorFlags
	deleteFlags descriptorFlags
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Run a SELECT descriptor",
	Example: `  # Inline JSON
  safesql select --query '{"columns":["id","name"],"from":"users","limit":10}'

  # YAML from a file
  safesql select -f users.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q query.SelectQuery
		if err := selectFlags.decode(cmd, &q); err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			return c.Select(ctx, q)
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count rows matched by a descriptor",
	Example: `  safesql count --query '{"from":"users","where":{"column":"active","operator":"=","value":"true"}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q query.CountQuery
		if err := countFlags.decode(cmd, &q); err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			n, err := c.Count(ctx, q)
			if err != nil {
				return nil, err
			}
			return map[string]int64{"count": n}, nil
		})
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Insert rows from a descriptor",
	Example: `  safesql insert --query '{"table":"users","values":[{"name":"ada"},{"name":"grace"}]}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q query.InsertQuery
		if err := insertFlags.decode(cmd, &q); err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			return c.Insert(ctx, q)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update rows from a descriptor",
	Example: `  safesql update --query '{"table":"users","values":{"name":"ada"},"where":{"column":"id","operator":"=","value":"1"}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q query.UpdateQuery
		if err := updateFlags.decode(cmd, &q); err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			return c.Update(ctx, q)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete rows from a descriptor",
	Example: `  safesql delete --query '{"table":"users","where":{"column":"id","operator":"=","value":"1"}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q query.DeleteQuery
		if err := deleteFlags.decode(cmd, &q); err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *safesql.Client) (any, error) {
			return c.Delete(ctx, q)
		})
	},
}

func init() {
	selectFlags.register(selectCmd)
	countFlags.register(countCmd)
	insertFlags.register(insertCmd)
	updateFlags.register(updateCmd)
	deleteFlags.register(deleteCmd)
}

// withClient opens a client, runs fn and prints its result as JSON.
func withClient(cmd *cobra.Command, fn func(context.Context, *safesql.Client) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, conn, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	out, err := fn(ctx, client)
	if err != nil {
		return cli.QueryError(cmd.Name()+" failed", err)
	}
	if quiet {
		return nil
	}
	return cli.WriteJSON(os.Stdout, out)
}
