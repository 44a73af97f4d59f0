package cmd

import (
	"context"
	"os"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/dbalert/internal/cmdutil"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/daemon"
	"github.com/ryan-gang/dbalert/internal/database"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	checkCmd.Flags().Bool("send", false, "Email the matching rows like a monitor cycle would")
	rootCmd.AddCommand(checkCmd)
}

var (
	helpCheck = `Runs the configured lookup once and prints the matching rows.
Nothing is mailed unless --send is given, in which case a single monitor
cycle runs: one email listing every matching row.`

	exampleCheck = dedent.Dedent(`
		# Show which rows would trigger an alert
		dbalert check

		# Run one full cycle, sending the alert if anything matches
		dbalert check --send`,
	)
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Query the monitored table once",
	Long:    helpCheck,
	Example: exampleCheck,
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

		send, _ := cmd.Flags().GetBool("send")
		ctx := context.Background()

		var rows []database.AlertRow
		var cycle *daemon.CycleResult
		if send {
			result, err := d.RunOnce(ctx)
			if err != nil {
				util.LogError(util.ContextOf(err), "running check", err)
				os.Exit(1)
			}
			rows = result.Rows
			cycle = &result
		} else {
			m := d.Monitor()
			rows, err = m.Fetch(ctx)
			m.Close()
			if err != nil {
				util.LogError(util.ContextOf(err), "querying "+cfg.GetTableName(), err)
				os.Exit(1)
			}
		}

		if len(rows) == 0 {
			util.Green.Printf("No rows in %s where %s = %s\n", cfg.GetTableName(), cfg.GetFieldName(), cfg.GetConditionValue())
			return
		}

		util.CyanBold.Printf("Found %d rows :\n", len(rows))
		for idx, row := range rows {
			util.Cyan.Printf("%d. %s [%s]\n", idx+1, row.JobName, row.Status)
			if row.JobResultLog != "" {
				util.Yellow.Printf("   %s\n", row.JobResultLog)
			}
		}

		if cycle != nil && !reportDelivery(*cycle) {
			log.Close()
			os.Exit(1)
		}
	},
}

func reportDelivery(result daemon.CycleResult) bool {
	switch {
	case result.MailErr != nil:
		util.LogError(util.MailError, "sending alert", result.MailErr)
		return false
	case result.Delivery.Uncertain:
		util.Yellow.Printf("Alert was probably sent to %v (server reply was malformed)\n", result.Delivery.Recipients)
	case result.Mailed:
		util.Green.Printf("Alert sent to %v\n", result.Delivery.Recipients)
	}
	return true
}
