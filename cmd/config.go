package cmd

import (
	"os"

	"github.com/ryan-gang/dbalert/internal/cmdutil"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after environment overrides and defaults
have been applied. Passwords are masked.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd, config.ScopeMail)
		if cfg == nil {
			os.Exit(1)
		}

		util.CyanBold.Printf("Configuration from %s\n", cfg.GetSource())

		util.CyanBold.Println("\n[SMTP]")
		util.Cyan.Printf("server: %s\n", cfg.GetSMTPServer())
		util.Cyan.Printf("port: %d\n", cfg.GetSMTPPort())
		util.Cyan.Printf("username: %s\n", cfg.GetSMTPUsername())
		util.Cyan.Printf("password: %s\n", util.Mask(cfg.GetSMTPPassword()))
		util.Cyan.Printf("sender_email: %s\n", cfg.GetSender())
		util.Cyan.Printf("timeout: %s\n", cfg.GetSMTPTimeout())
		if cfg.InsecureSkipVerify() {
			util.Yellow.Println("insecure_skip_verify: true")
		} else {
			util.Cyan.Println("insecure_skip_verify: false")
		}

		util.CyanBold.Println("\n[ORACLE]")
		util.Cyan.Printf("driver: %s\n", cfg.GetDriver())
		util.Cyan.Printf("username: %s\n", cfg.GetDBUsername())
		util.Cyan.Printf("password: %s\n", util.Mask(cfg.GetDBPassword()))
		util.Cyan.Printf("dsn: %s\n", util.MaskDSN(cfg.GetDSN()))
		util.Cyan.Printf("query_timeout: %s\n", cfg.GetQueryTimeout())

		util.CyanBold.Println("\n[MONITOR]")
		util.Cyan.Printf("table_name: %s\n", cfg.GetTableName())
		util.Cyan.Printf("field_name: %s\n", cfg.GetFieldName())
		util.Cyan.Printf("condition_value: %s\n", cfg.GetConditionValue())
		util.Cyan.Printf("receiver_email: %s\n", cfg.GetReceiver())
		util.Cyan.Printf("check_interval: %s\n", cfg.GetCheckInterval())
		util.Cyan.Printf("cool_down: %s\n", cfg.GetCoolDown())
		util.Cyan.Printf("email_subject: %s\n", cfg.GetEmailSubject())

		util.CyanBold.Println("\n[SERVER]")
		util.Cyan.Printf("addr: %s\n", cfg.GetServerAddr())

		util.CyanBold.Println("\n[LOG]")
		util.Cyan.Printf("path: %s\n", cfg.GetLogPath())
		util.Cyan.Printf("level: %s\n", cfg.GetLogLevel())

		util.CyanBold.Println("\n[DAEMON]")
		util.Cyan.Printf("pid_file: %s\n", cfg.GetPidFile())
	},
}
