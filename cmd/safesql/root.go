package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile    string
	verbose    int
	quiet      bool
	dbURL      string
	driverName string
)

var rootCmd = &cobra.Command{
	Use:   "safesql",
	Short: "Injection-safe SQL statements from structured descriptors",
	Long: `safesql - Injection-safe SQL for PostgreSQL

safesql turns JSON or YAML query descriptors into sanitized PostgreSQL
statements, checks every table against an allow-list, and runs them through
a pgx or database/sql driver.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		if dbURL != "" {
			cfg.Database.URL = dbURL
		}
		cfg.Driver = resolveString(driverName, cfg.Driver)
		if err := cfg.Validate(); err != nil {
			return cli.ConfigError("invalid configuration", err)
		}

		logger = newLogger(os.Stderr, verbose, quiet, cfg.Debug.Runtime)
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupQuery    = "query"
	groupDatabase = "database"
	groupUtility  = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover safesql.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "database URL (overrides database.url)")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "", "driver: pgx, pgx-stdlib or postgres")

	// Define command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	// Query commands
	for _, c := range []*cobra.Command{selectCmd, countCmd, insertCmd, updateCmd, deleteCmd, rawCmd, buildCmd} {
		c.GroupID = groupQuery
		rootCmd.AddCommand(c)
	}

	// Database commands
	statusCmd.GroupID = groupDatabase
	doctorCmd.GroupID = groupDatabase
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)

	// Utility commands
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// newLogger builds the stderr logger. Runtime tracing and -v enable debug
// records; -q keeps errors only.
func newLogger(w io.Writer, verbosity int, quiet, runtime bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity > 0 || runtime:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openClient connects with the configured driver and returns a Client built
// from the configuration. The caller must close the connection.
func openClient(ctx context.Context) (*safesql.Client, *cli.Connection, error) {
	conn, err := cli.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return safesql.New(conn.Driver, cfg.ClientOptions(logger)...), conn, nil
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
