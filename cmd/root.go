package cmd

import (
	"fmt"
	"os"

	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath(), "Path to config file (INI, YAML or JSON)")
}

var rootCmd = &cobra.Command{
	Use:   "dbalert",
	Short: "Watch a database table and email an alert when jobs reach a given status",
	Long: `dbalert polls a database table on a fixed interval and sends one email
listing every row whose monitored field equals the configured value.

It can:
- Run the monitor loop in the foreground or as a daemon with a PID file
- Run a single check and print the matching rows
- Serve a small HTTP endpoint that sends ad-hoc emails through the same SMTP account

Settings are read from config.ini next to the executable (or the path given
with --config) and can be overridden with environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help if no command is provided
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
