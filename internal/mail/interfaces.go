package mail

import (
	"crypto/tls"

	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/logger"
)

// MailSender defines the interface for sending emails
type MailSender interface {
	// Send delivers a plain-text mail. receivers is a single address or a
	// comma-separated list.
	Send(receivers, subject, body string) (Result, error)
}

// Result describes a delivery the server accepted
type Result struct {
	Recipients []string
	// Uncertain is set when the server answered the end of DATA with a
	// malformed reply. The message is most likely delivered.
	Uncertain bool
}

// SMTPMailSender implements MailSender using SMTP
type SMTPMailSender struct {
	cfg             config.ConfigProvider
	log             logger.LoggerInterface
	tlsConfig       *tls.Config
	implicitTLSPort int
}

// NewSMTPMailSender creates a new SMTP mail sender
func NewSMTPMailSender(cfg config.ConfigProvider, log logger.LoggerInterface) MailSender {
	log = log.With("component", "mail")
	if cfg.InsecureSkipVerify() {
		log.Warnf("TLS certificate and hostname verification is disabled for %s", cfg.GetSMTPServer())
	}
	return &SMTPMailSender{
		cfg: cfg,
		log: log,
		tlsConfig: &tls.Config{
			ServerName:         cfg.GetSMTPServer(),
			InsecureSkipVerify: cfg.InsecureSkipVerify(),
		},
		implicitTLSPort: ImplicitTLSPort,
	}
}
