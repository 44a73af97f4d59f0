package mail

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/util"
)

// ImplicitTLSPort is the SMTPS port. Every other port starts in plaintext.
const ImplicitTLSPort = 465

// errMalformedAck marks a garbled reply to the end of DATA or to QUIT. Some
// servers send it after accepting the message.
var errMalformedAck = errors.New("malformed acknowledgment after message data")

// transport runs one SMTP session per message. It is handed to gomail.Send
// as a gomail.SendFunc.
type transport struct {
	host        string
	port        int
	username    string
	password    string
	timeout     time.Duration
	tlsConfig   *tls.Config
	implicitTLS int
	log         logger.LoggerInterface
}

func (t *transport) send(from string, to []string, msg io.WriterTo) error {
	conn, err := t.dial()
	if err != nil {
		return fmt.Errorf("%w: connecting to %s:%d: %w", util.ErrSend, t.host, t.port, err)
	}
	if t.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.timeout))
	}

	c, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: reading greeting: %w", util.ErrSend, err)
	}
	defer c.Close()

	if t.port != t.implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			t.log.Debug("STARTTLS supported, initiating")
			if err := c.StartTLS(t.tlsConfig); err != nil {
				return fmt.Errorf("%w: starttls: %w", util.ErrSend, err)
			}
		} else {
			t.log.Warnf("STARTTLS not supported by %s, continuing without encryption", t.host)
		}
	}

	if t.username != "" {
		if err := t.authenticate(c); err != nil {
			return err
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("%w: mail from: %w", util.ErrSend, err)
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return fmt.Errorf("%w: rcpt to %s: %w", util.ErrSend, addr, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %w", util.ErrSend, err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: writing message: %w", util.ErrSend, err)
	}
	if err := w.Close(); err != nil {
		if isMalformedReply(err) {
			return fmt.Errorf("%w: %w", errMalformedAck, err)
		}
		return fmt.Errorf("%w: end of data: %w", util.ErrSend, err)
	}

	// The message is accepted at this point; a failing QUIT does not undo it.
	if err := c.Quit(); err != nil {
		t.log.Debugf("QUIT after accepted message failed: %v", err)
	}
	return nil
}

func (t *transport) dial() (net.Conn, error) {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	dialer := &net.Dialer{Timeout: t.timeout}
	if t.port == t.implicitTLS {
		t.log.Debug("Using implicit TLS connection")
		return tls.DialWithDialer(dialer, "tcp", addr, t.tlsConfig)
	}
	return dialer.Dial("tcp", addr)
}

func (t *transport) authenticate(c *smtp.Client) error {
	ok, mechanisms := c.Extension("AUTH")
	if !ok {
		return fmt.Errorf("%w: server %s does not support AUTH", util.ErrAuth, t.host)
	}

	_, encrypted := c.TLSConnectionState()
	var auth smtp.Auth
	switch {
	case strings.Contains(mechanisms, "CRAM-MD5"):
		auth = smtp.CRAMMD5Auth(t.username, t.password)
	case strings.Contains(mechanisms, "LOGIN") && !strings.Contains(mechanisms, "PLAIN"):
		auth = &loginAuth{username: t.username, password: t.password}
	case encrypted:
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	default:
		t.log.Warnf("Sending credentials to %s over an unencrypted connection", t.host)
		auth = &plainAuth{username: t.username, password: t.password}
	}

	// Any reply rejecting the exchange is an authentication failure. Only a
	// broken connection is reported as a send failure.
	if err := c.Auth(auth); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: auth: %w", util.ErrSend, err)
		}
		return fmt.Errorf("%w: %w", util.ErrAuth, err)
	}
	t.log.Debug("Login successful")
	return nil
}

func isMalformedReply(err error) bool {
	var protoErr textproto.ProtocolError
	return errors.As(err, &protoErr)
}

// plainAuth is PLAIN without net/smtp's refusal to run over plaintext to a
// remote host. It is only chosen when the server offers no STARTTLS.
type plainAuth struct {
	username, password string
}

func (a *plainAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "PLAIN", []byte("\x00" + a.username + "\x00" + a.password), nil
}

func (a *plainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("unexpected server challenge")
	}
	return nil, nil
}

type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:":
		return []byte(a.username), nil
	case "password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
	}
}
