package database

import (
	"fmt"
	"net/url"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/ryan-gang/dbalert/internal/config"
)

// DataSourceName turns the configured DSN and credentials into the string the
// selected driver expects.
//
// oracle accepts an oracle:// URL, a (DESCRIPTION=...) connect descriptor or
// the easy-connect form host[:port]/service.
// postgres accepts a postgres:// URL or key=value pairs. sqlite3 takes the DSN
// unchanged.
func DataSourceName(s Settings) (string, error) {
	switch s.Driver {
	case DriverOracle:
		return oracleDSN(s)
	case DriverPostgres:
		return postgresDSN(s)
	case DriverSQLite:
		return s.DSN, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", s.Driver)
	}
}

func oracleDSN(s Settings) (string, error) {
	dsn := strings.TrimSpace(s.DSN)
	switch {
	case config.IsOracleURL(dsn):
		return withUserInfo(dsn, s.Username, s.Password)
	case config.IsConnectDescriptor(dsn):
		return go_ora.BuildJDBC(s.Username, s.Password, dsn, nil), nil
	}

	addr, err := config.ParseOracleAddress(dsn)
	if err != nil {
		return "", fmt.Errorf("oracle dsn %v", err)
	}
	return go_ora.BuildUrl(addr.Host, addr.Port, addr.Service, s.Username, s.Password, nil), nil
}

func postgresDSN(s Settings) (string, error) {
	dsn := strings.TrimSpace(s.DSN)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return withUserInfo(dsn, s.Username, s.Password)
	}

	if s.Username != "" && !strings.Contains(dsn, "user=") {
		dsn += " user=" + quoteValue(s.Username)
	}
	if s.Password != "" && !strings.Contains(dsn, "password=") {
		dsn += " password=" + quoteValue(s.Password)
	}
	return strings.TrimSpace(dsn), nil
}

// withUserInfo fills in credentials only when the URL carries none.
func withUserInfo(raw, username, password string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid dsn url: %v", err)
	}
	if u.User == nil && username != "" {
		u.User = url.UserPassword(username, password)
	}
	return u.String(), nil
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
