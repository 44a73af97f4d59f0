package mail

import (
	"errors"
	"fmt"

	"github.com/ryan-gang/dbalert/internal/metrics"
	"github.com/ryan-gang/dbalert/internal/util"

	gomail "gopkg.in/mail.v2"
)

func (s *SMTPMailSender) Send(receivers, subject, body string) (Result, error) {
	cfg := s.cfg
	to := NormalizeRecipients(receivers)
	if len(to) == 0 {
		metrics.MailSendFailure.WithLabelValues(cfg.GetSMTPServer(), "validation").Inc()
		return Result{}, fmt.Errorf("%w: no recipients given", util.ErrSend)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", cfg.GetSender())
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	t := &transport{
		host:        cfg.GetSMTPServer(),
		port:        cfg.GetSMTPPort(),
		username:    cfg.GetSMTPUsername(),
		password:    cfg.GetSMTPPassword(),
		timeout:     cfg.GetSMTPTimeout(),
		tlsConfig:   s.tlsConfig,
		implicitTLS: s.implicitTLSPort,
		log:         s.log,
	}

	s.log.Infof("Connecting to SMTP server %s:%d", t.host, t.port)
	err := gomail.Send(gomail.SendFunc(t.send), msg)
	result := Result{Recipients: to}

	switch cause := causeOf(err); {
	case cause == nil:
		s.log.Infof("Mail sent successfully to %v", to)
	case errors.Is(cause, errMalformedAck):
		s.log.Warnf("Received unexpected response from server, but mail to %v was likely sent: %v", to, cause)
		result.Uncertain = true
	case errors.Is(cause, util.ErrAuth):
		s.log.Errorf("Authentication failed: %v", cause)
		metrics.MailSendFailure.WithLabelValues(t.host, "auth").Inc()
		return Result{}, cause
	default:
		if !errors.Is(cause, util.ErrSend) {
			cause = fmt.Errorf("%w: %w", util.ErrSend, cause)
		}
		s.log.Errorf("Failed to send mail: %v", cause)
		metrics.MailSendFailure.WithLabelValues(t.host, "send").Inc()
		return Result{}, cause
	}

	metrics.MailSendSuccess.WithLabelValues(t.host).Inc()
	return result, nil
}

// causeOf unwraps the batch error gomail.Send returns
func causeOf(err error) error {
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Cause
	}
	return err
}
