package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/safesql/internal/cli"
)

var (
	configShowSource bool
	configShowReveal bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, safesql.yaml,
SAFESQL_* environment variables and the --db/--driver flags. Passwords are
masked unless --reveal is given.`,
	Example: `  # Show effective configuration
  safesql config show

  # Include the config file path and the real password
  safesql config show --source --reveal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(os.Stdout, cfg, configPath, configShowSource, configShowReveal)
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show config file source")
	configShowCmd.Flags().BoolVar(&configShowReveal, "reveal", false, "print passwords in clear text")
	configCmd.AddCommand(configShowCmd)
}

func showConfig(w io.Writer, c *cli.Config, path string, source, reveal bool) error {
	if source {
		if path == "" {
			path = "(none, using defaults)"
		}
		fmt.Fprintf(w, "Config file: %s\n\n", path)
	}
	if !reveal {
		c = c.Redacted()
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return cli.GeneralError("rendering configuration", err)
	}
	_, err = w.Write(out)
	return err
}
