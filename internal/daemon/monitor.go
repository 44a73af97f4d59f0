package daemon

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ryan-gang/dbalert/internal/alert"
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/database"
	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/mail"
	"github.com/ryan-gang/dbalert/internal/metrics"
	"github.com/ryan-gang/dbalert/internal/util"
)

// Store is the part of database.Client the monitor uses
type Store interface {
	FetchAlerts(ctx context.Context, l database.Lookup) ([]database.AlertRow, error)
	Ping(ctx context.Context) error
	Close() error
}

// Connector opens a new Store
type Connector func(ctx context.Context) (Store, error)

// DatabaseConnector opens database.Client handles for the given settings
func DatabaseConnector(s database.Settings) Connector {
	return func(ctx context.Context) (Store, error) {
		return database.Open(ctx, s)
	}
}

type State int

const (
	Disconnected State = iota
	ConnectedIdle
	Alerting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedIdle:
		return "connected-idle"
	case Alerting:
		return "alerting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CycleResult reports what one cycle did
type CycleResult struct {
	Rows     []database.AlertRow
	Mailed   bool
	MailErr  error
	Delivery mail.Result
}

// Monitor holds the connection between cycles. It is not safe for
// concurrent use.
type Monitor struct {
	cfg     config.ConfigProvider
	lookup  database.Lookup
	connect Connector
	mailer  mail.MailSender
	log     logger.LoggerInterface

	conn  Store
	state State
}

func NewMonitor(cfg config.ConfigProvider, connect Connector, mailer mail.MailSender, log logger.LoggerInterface) *Monitor {
	return &Monitor{
		cfg:     cfg,
		lookup:  database.LookupFrom(cfg),
		connect: connect,
		mailer:  mailer,
		log:     log.With("component", "monitor"),
		state:   Disconnected,
	}
}

func (m *Monitor) State() State {
	return m.state
}

// RunCycle performs connect, query, format and send once. A returned error
// means the database side failed (or something panicked); the connection has
// been dropped and the caller should cool down. Mail failures are reported in
// the result only.
func (m *Monitor) RunCycle(ctx context.Context) (result CycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("Unexpected panic during monitor cycle: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("%w: unexpected panic: %v", util.ErrDatabase, r)
		}
		if err != nil {
			m.reset()
			metrics.MonitorCycles.WithLabelValues("error").Inc()
		}
	}()

	rows, err := m.Fetch(ctx)
	if err != nil {
		return CycleResult{}, err
	}
	result.Rows = rows

	if len(rows) == 0 {
		m.log.Debug("No rows match the alert condition")
		metrics.MonitorCycles.WithLabelValues("idle").Inc()
		return result, nil
	}

	m.state = Alerting
	metrics.MonitorMatchedRows.Add(float64(len(rows)))
	m.log.Infof("Found %d rows in %s where %s = %s", len(rows), m.lookup.Table, m.lookup.Field, m.lookup.Value)

	body := alert.Body(m.lookup.Table, m.lookup.Value, rows)
	delivery, mailErr := m.mailer.Send(m.cfg.GetReceiver(), m.cfg.GetEmailSubject(), body)
	m.state = ConnectedIdle

	if mailErr != nil {
		if errors.Is(mailErr, util.ErrAuth) {
			m.log.Errorf("Alert mail not sent, SMTP authentication failed: %v", mailErr)
		} else {
			m.log.Errorf("Alert mail not sent: %v", mailErr)
		}
		result.MailErr = mailErr
		metrics.MonitorCycles.WithLabelValues("mail_error").Inc()
		return result, nil
	}

	result.Mailed = true
	result.Delivery = delivery
	metrics.AlertsSent.Inc()
	metrics.MonitorCycles.WithLabelValues("alerted").Inc()
	return result, nil
}

// Fetch ensures a live connection and runs the lookup
func (m *Monitor) Fetch(ctx context.Context) ([]database.AlertRow, error) {
	if err := m.ensureConnected(ctx); err != nil {
		metrics.DatabaseErrors.WithLabelValues("connect").Inc()
		return nil, err
	}

	rows, err := m.conn.FetchAlerts(ctx, m.lookup)
	if err != nil {
		metrics.DatabaseErrors.WithLabelValues("query").Inc()
		return nil, asDatabaseError(err)
	}
	return rows, nil
}

func (m *Monitor) ensureConnected(ctx context.Context) error {
	if m.conn != nil {
		if err := m.conn.Ping(ctx); err == nil {
			return nil
		}
		m.log.Warn("Database connection is no longer usable, reconnecting")
		m.reset()
	}

	conn, err := m.connect(ctx)
	if err != nil {
		return asDatabaseError(err)
	}
	m.conn = conn
	m.state = ConnectedIdle
	metrics.MonitorConnected.Set(1)
	m.log.Infof("Connected to %s database", m.cfg.GetDriver())
	return nil
}

// reset closes the connection, if any, and returns to Disconnected
func (m *Monitor) reset() {
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.log.Warnf("Error closing database connection: %v", err)
		}
		m.conn = nil
	}
	m.state = Disconnected
	metrics.MonitorConnected.Set(0)
}

// Close releases the connection
func (m *Monitor) Close() {
	m.reset()
}

func asDatabaseError(err error) error {
	if errors.Is(err, util.ErrDatabase) {
		return err
	}
	return fmt.Errorf("%w: %w", util.ErrDatabase, err)
}
