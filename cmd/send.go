package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/dbalert/internal/cmdutil"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/mail"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	sendCmd.Flags().StringP("to", "t", "", "Receiver address or comma-separated list (defaults to the monitor receiver)")
	sendCmd.Flags().StringP("subject", "s", "", "Subject line (defaults to the monitor email subject)")
	rootCmd.AddCommand(sendCmd)
}

var (
	helpLong = `Sends a plain-text email through the configured SMTP account.
The body is taken from the arguments, or from stdin when none are given.
This is the command line version of the POST /send_email endpoint.`

	helpExample = dedent.Dedent(`
		# Send a test mail to the monitor receivers
		dbalert send "SMTP settings work"

		# Send to several addresses with a custom subject
		dbalert send --to "a@example.com, b@example.com" --subject "Maintenance" "Tonight 22:00"

		# Pipe the body in
		echo "report attached below" | dbalert send --to ops@example.com`,
	)
)

var sendCmd = &cobra.Command{
	Use:     "send [BODY...]",
	Short:   "Send a one-off email",
	Long:    helpLong,
	Example: helpExample,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMail)
		if cfg == nil {
			os.Exit(1)
		}
		log := cmdutil.NewLoggerOrExit(cfg)
		if log == nil {
			os.Exit(1)
		}
		defer log.Close()

		to, _ := cmd.Flags().GetString("to")
		if to == "" {
			to = cfg.GetReceiver()
		}
		subject, _ := cmd.Flags().GetString("subject")
		if subject == "" {
			subject = cfg.GetEmailSubject()
		}

		body := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				util.LogError(util.FileError, "reading body from stdin", err)
				os.Exit(1)
			}
			body = string(data)
		}

		result, err := mail.NewSMTPMailSender(cfg, log).Send(to, subject, body)
		if err != nil {
			util.LogError(util.MailError, "sending mail", err)
			log.Close()
			os.Exit(1)
		}
		if result.Uncertain {
			util.Yellow.Printf("Mail was probably sent to %v (server reply was malformed)\n", result.Recipients)
			return
		}
		util.Green.Printf("Mail sent to %v\n", result.Recipients)
	},
}
