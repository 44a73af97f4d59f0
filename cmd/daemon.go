package cmd

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/ryan-gang/dbalert/internal/cmdutil"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/daemon"
	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

const stopTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Daemon management commands",
	Long:  `Manage the dbalert daemon that polls the configured table and emails alerts.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dbalert daemon",
	Long:  `Start the monitor loop with a PID file so that 'daemon stop' and 'daemon status' can find it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMonitor)
		if cfg == nil {
			os.Exit(1)
		}

		d, err := daemon.NewDaemon(cfg, daemon.Options{})
		if err != nil {
			util.LogError(util.DaemonError, "creating daemon", err)
			os.Exit(1)
		}
		if err := d.Start(context.Background()); err != nil {
			util.LogError(util.DaemonError, "starting daemon", err)
			os.Exit(1)
		}
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the dbalert daemon",
	Long:  `Send SIGTERM to the running daemon and wait for it to exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMail)
		if cfg == nil {
			os.Exit(1)
		}

		d := controlDaemonOrExit(cfg)
		if err := d.Status(); err != nil {
			return
		}
		if err := stopDaemon(d); err != nil {
			util.LogError(util.DaemonError, "stopping daemon", err)
			os.Exit(1)
		}
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Long:  `Check if the dbalert daemon is currently running and display what it monitors.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMail)
		if cfg == nil {
			os.Exit(1)
		}

		d := controlDaemonOrExit(cfg)
		if err := d.Status(); err != nil {
			os.Exit(1)
		}
	},
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the dbalert daemon",
	Long:  `Stop and then start the dbalert daemon.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMonitor)
		if cfg == nil {
			os.Exit(1)
		}

		// Stop if running
		if control := controlDaemonOrExit(cfg); control.Status() == nil {
			util.Cyan.Println("Stopping existing daemon...")
			if err := stopDaemon(control); err != nil {
				util.LogError(util.DaemonError, "stopping daemon", err)
				os.Exit(1)
			}
		}

		util.Cyan.Println("Starting daemon...")
		d, err := daemon.NewDaemon(cfg, daemon.Options{})
		if err != nil {
			util.LogError(util.DaemonError, "creating daemon", err)
			os.Exit(1)
		}
		if err := d.Start(context.Background()); err != nil {
			util.LogError(util.DaemonError, "starting daemon", err)
			os.Exit(1)
		}
	},
}

// controlDaemonOrExit builds a daemon handle that only talks to the PID file
func controlDaemonOrExit(cfg config.ConfigProvider) *daemon.Daemon {
	d, err := daemon.NewDaemon(cfg, daemon.Options{Logger: logger.NewNop()})
	if err != nil {
		util.LogError(util.DaemonError, "creating daemon", err)
		os.Exit(1)
	}
	return d
}

func stopDaemon(d *daemon.Daemon) error {
	if err := d.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	if err := d.WaitStopped(stopTimeout); err != nil {
		return err
	}
	util.Green.Println("Daemon stopped")
	return nil
}
