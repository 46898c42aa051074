package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/cli"
	"github.com/pthm/safesql/internal/doctor"
)

var doctorDetail bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Run health checks on the connection, the allow-lists and raw access.`,
	Example: `  # Run health checks
  safesql doctor --db postgres://localhost/mydb

  # Show details for every check
  safesql doctor --detail`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context(), resolveBool(doctorDetail, cfg.Doctor.Verbose, verbose > 0))
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorDetail, "detail", false, "show detailed output")
}

func runDoctor(ctx context.Context, detail bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !quiet {
		fmt.Println("safesql doctor - Health Check")
	}

	// A failed connection is reported as a check, not returned.
	var driver safesql.Driver
	conn, err := cli.Open(ctx, cfg)
	if err == nil {
		defer conn.Close()
		driver = conn.Driver
	} else {
		logger.Debug("doctor connection failed", "error", err)
	}

	d := doctor.New(driver, cfg.AllowList(), cfg.ExposeRaw)
	report, err := d.Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, detail)

	if report.HasErrors() {
		return cli.GeneralError("doctor found errors", nil)
	}
	return nil
}
