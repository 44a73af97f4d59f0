package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	_ "github.com/sijms/go-ora/v2"

	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/util"
)

const (
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Job columns returned next to the monitored field.
const (
	JobNameColumn      = "JOB_NAME"
	JobResultLogColumn = "JOB_RESULT_LOG"
)

// AlertRow is one row matching the alert condition
type AlertRow struct {
	Status       string
	JobName      string
	JobResultLog string
}

// Lookup names what to query. Table and Field come from trusted configuration
// and are interpolated; Value is always bound.
type Lookup struct {
	Table string
	Field string
	Value string
}

type Settings struct {
	Driver       string
	Username     string
	Password     string
	DSN          string
	QueryTimeout time.Duration
}

// SettingsFrom extracts the database settings from the configuration
func SettingsFrom(cfg config.ConfigProvider) Settings {
	return Settings{
		Driver:       cfg.GetDriver(),
		Username:     cfg.GetDBUsername(),
		Password:     cfg.GetDBPassword(),
		DSN:          cfg.GetDSN(),
		QueryTimeout: cfg.GetQueryTimeout(),
	}
}

// LookupFrom extracts the monitored table, field and condition value
func LookupFrom(cfg config.ConfigProvider) Lookup {
	return Lookup{
		Table: cfg.GetTableName(),
		Field: cfg.GetFieldName(),
		Value: cfg.GetConditionValue(),
	}
}

// Client owns a single database handle
type Client struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

// Open connects and pings the database. Errors wrap util.ErrDatabase.
func Open(ctx context.Context, s Settings) (*Client, error) {
	dsn, err := DataSourceName(s)
	if err != nil {
		return nil, dbError(err, "building data source name")
	}

	db, err := sql.Open(s.Driver, dsn)
	if err != nil {
		return nil, dbError(err, "opening "+s.Driver+" database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Client{db: db, driver: s.Driver, timeout: s.QueryTimeout}
	if err := c.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Ping verifies the handle is still usable
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return dbError(err, "pinging database")
	}
	return nil
}

// FetchAlerts runs the parameterized lookup and returns rows in the order the
// driver produced them. NULL columns come back as empty strings.
func (c *Client) FetchAlerts(ctx context.Context, l Lookup) ([]AlertRow, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, BuildQuery(c.driver, l), l.Value)
	if err != nil {
		return nil, dbError(err, "querying "+l.Table)
	}
	defer rows.Close()

	var results []AlertRow
	for rows.Next() {
		var status, jobName, jobLog sql.NullString
		if err := rows.Scan(&status, &jobName, &jobLog); err != nil {
			return nil, dbError(err, "scanning row")
		}
		results = append(results, AlertRow{
			Status:       status.String,
			JobName:      jobName.String,
			JobResultLog: jobLog.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating rows")
	}
	return results, nil
}

func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		return dbError(err, "closing database")
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BuildQuery renders the lookup with the bind placeholder of the driver
func BuildQuery(driver string, l Lookup) string {
	return fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s = %s",
		l.Field, JobNameColumn, JobResultLogColumn, l.Table, l.Field, placeholder(driver))
}

func placeholder(driver string) string {
	switch driver {
	case DriverOracle:
		return ":1"
	case DriverPostgres:
		return "$1"
	default:
		return "?"
	}
}

func dbError(err error, operation string) error {
	return fmt.Errorf("%w: %w", util.ErrDatabase, errors.Wrap(err, operation))
}
