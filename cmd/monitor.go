package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/dbalert/internal/cmdutil"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/daemon"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(monitorCmd)
}

var (
	helpMonitor = `Runs the monitor loop in the foreground until interrupted.
Every check interval the configured table is queried for rows whose field
equals the condition value, and one email listing all of them is sent.
After a database error the next check waits for the cool-down instead.`

	exampleMonitor = dedent.Dedent(`
		# Monitor with config.ini next to the binary
		dbalert monitor

		# Monitor with an explicit configuration file
		dbalert monitor --config /etc/dbalert/config.yaml

		# Override the interval from the environment
		MONITOR_CHECK_INTERVAL=60 dbalert monitor`,
	)
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Short:   "Run the monitor loop in the foreground",
	Long:    helpMonitor,
	Example: exampleMonitor,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMonitor)
		if cfg == nil {
			os.Exit(1)
		}
		log := cmdutil.NewLoggerOrExit(cfg)
		if log == nil {
			os.Exit(1)
		}
		defer log.Close()

		d, err := daemon.NewDaemon(cfg, daemon.Options{Logger: log})
		if err != nil {
			util.LogError(util.DaemonError, "creating monitor", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		util.GreenBold.Printf("Monitoring %s.%s = %s every %s\n", cfg.GetTableName(), cfg.GetFieldName(), cfg.GetConditionValue(), cfg.GetCheckInterval())
		if err := d.Run(ctx); err != nil {
			util.LogError(util.DaemonError, "running monitor", err)
			os.Exit(1)
		}
		util.Cyan.Println("Monitor stopped")
	},
}
