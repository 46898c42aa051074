package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/cli"
	"github.com/pthm/safesql/internal/sqlcheck"
	"github.com/pthm/safesql/pkg/query"
)

var (
	buildFlags  descriptorFlags
	buildVerify bool
)

var buildCmd = &cobra.Command{
	Use:       "build <select|count|insert|update|delete>",
	Short:     "Print the SQL for a descriptor without running it",
	ValidArgs: []string{"select", "count", "insert", "update", "delete"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Example: `  # Print a SELECT statement
  safesql build select --query '{"columns":"*","from":"users"}'

  # Also run the statement through the PostgreSQL parser
  safesql build delete -f delete.yaml --verify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stmt, err := buildStatement(cmd, args[0])
		if err != nil {
			return err
		}

		if buildVerify {
			if _, err := sqlcheck.Statement(stmt); err != nil {
				return cli.GeneralError("generated statement failed to parse", err)
			}
		}

		fmt.Fprintln(os.Stdout, stmt)
		return nil
	},
}

func init() {
	buildFlags.register(buildCmd)
	buildCmd.Flags().BoolVar(&buildVerify, "verify", false, "verify the statement with the PostgreSQL parser")
}

func buildStatement(cmd *cobra.Command, kind string) (string, error) {
	var (
		stmt string
		err  error
	)
	switch kind {
	case "select":
		var q query.SelectQuery
		if err := buildFlags.decode(cmd, &q); err != nil {
			return "", err
		}
		stmt, err = safesql.BuildSelect(q)
	case "count":
		var q query.CountQuery
		if err := buildFlags.decode(cmd, &q); err != nil {
			return "", err
		}
		stmt, err = safesql.BuildCount(q)
	case "insert":
		var q query.InsertQuery
		if err := buildFlags.decode(cmd, &q); err != nil {
			return "", err
		}
		stmt, err = safesql.BuildInsert(q)
	case "update":
		var q query.UpdateQuery
		if err := buildFlags.decode(cmd, &q); err != nil {
			return "", err
		}
		stmt, err = safesql.BuildUpdate(q)
	case "delete":
		var q query.DeleteQuery
		if err := buildFlags.decode(cmd, &q); err != nil {
			return "", err
		}
		stmt, err = safesql.BuildDelete(q)
	default:
		return "", cli.GeneralError("unknown statement kind", fmt.Errorf("%q", kind))
	}
	if err != nil {
		return "", cli.QueryError("building "+kind, err)
	}
	return stmt, nil
}
