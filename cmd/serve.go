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
	"github.com/ryan-gang/dbalert/internal/mail"
	"github.com/ryan-gang/dbalert/internal/server"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().Bool("with-monitor", false, "Also run the monitor loop in this process")
	serveCmd.Flags().Bool("debug", false, "Run gin in debug mode")
	rootCmd.AddCommand(serveCmd)
}

var (
	helpServe = `Serves the HTTP trigger endpoint.

  GET  /            form for sending an email
  POST /send_email  form fields receiver_email, subject, body
  GET  /healthz     liveness
  GET  /metrics     prometheus metrics`

	exampleServe = dedent.Dedent(`
		# Serve on the configured address (default 0.0.0.0:8080)
		dbalert serve

		# Serve and monitor in one process
		dbalert serve --with-monitor

		# Trigger a mail
		curl -d receiver_email=ops@example.com -d subject=hi -d body=test http://localhost:8080/send_email`,
	)
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the HTTP endpoint for ad-hoc emails",
	Long:    helpServe,
	Example: exampleServe,
	Run: func(cmd *cobra.Command, args []string) {
		withMonitor, _ := cmd.Flags().GetBool("with-monitor")
		debug, _ := cmd.Flags().GetBool("debug")

		scope := config.ScopeMail
		if withMonitor {
			scope = config.ScopeMonitor
		}
		cfg := cmdutil.LoadConfigOrExit(cmd, scope)
		if cfg == nil {
			os.Exit(1)
		}
		log := cmdutil.NewLoggerOrExit(cfg)
		if log == nil {
			os.Exit(1)
		}
		defer log.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mailer := mail.NewSMTPMailSender(cfg, log)

		monitorDone := make(chan struct{})
		if withMonitor {
			d, err := daemon.NewDaemon(cfg, daemon.Options{Logger: log, Mailer: mailer})
			if err != nil {
				util.LogError(util.DaemonError, "creating monitor", err)
				os.Exit(1)
			}
			go func() {
				defer close(monitorDone)
				if err := d.Run(ctx); err != nil {
					log.Errorf("Monitor loop stopped: %v", err)
				}
			}()
		} else {
			close(monitorDone)
		}

		util.GreenBold.Printf("Serving on http://%s\n", cfg.GetServerAddr())
		srv := server.NewServer(cfg, mailer, log, debug)
		if err := srv.ListenAndServe(ctx); err != nil {
			util.LogError(util.ServerError, "serving HTTP", err)
			stop()
			<-monitorDone
			log.Close()
			os.Exit(1)
		}
		<-monitorDone
	},
}
