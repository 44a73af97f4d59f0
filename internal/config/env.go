package config

import (
	"strconv"
	"strings"
)

// ApplyEnv overrides file values with the environment. getenv is os.Getenv
// outside of tests.
func ApplyEnv(c *Config, getenv func(string) string) {
	setString(&c.SMTP.Server, getenv("SMTP_SERVER"))
	setInt(&c.SMTP.Port, getenv("SMTP_PORT"))
	setString(&c.SMTP.Username, getenv("SMTP_USERNAME"))
	setString(&c.SMTP.Password, getenv("SMTP_PASSWORD"))
	setString(&c.SMTP.SenderEmail, getenv("SENDER_EMAIL"))
	setInt(&c.SMTP.TimeoutSeconds, getenv("SMTP_TIMEOUT"))
	if v := getenv("SMTP_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SMTP.InsecureSkipVerify = &b
		}
	}

	setString(&c.Database.Driver, getenv("DB_DRIVER"))
	setString(&c.Database.Username, getenv("ORACLE_USERNAME"))
	setString(&c.Database.Password, getenv("ORACLE_PASSWORD"))
	setString(&c.Database.DSN, getenv("ORACLE_DSN"))
	setInt(&c.Database.QueryTimeoutSeconds, getenv("DB_QUERY_TIMEOUT"))

	setString(&c.Monitor.TableName, getenv("MONITOR_TABLE_NAME"))
	setString(&c.Monitor.FieldName, getenv("MONITOR_FIELD_NAME"))
	setString(&c.Monitor.ConditionValue, getenv("MONITOR_CONDITION_VALUE"))
	setString(&c.Monitor.ReceiverEmail, getenv("MONITOR_RECEIVER_EMAIL"))
	setInt(&c.Monitor.CheckInterval, getenv("MONITOR_CHECK_INTERVAL"))
	setInt(&c.Monitor.CoolDownSeconds, getenv("MONITOR_COOL_DOWN"))
	setString(&c.Monitor.EmailSubject, getenv("MONITOR_EMAIL_SUBJECT"))

	setString(&c.Server.Addr, getenv("SERVER_ADDR"))
	setString(&c.Log.Path, getenv("LOG_PATH"))
	setString(&c.Log.Level, getenv("LOG_LEVEL"))
	setString(&c.Daemon.PidFile, getenv("PID_FILE"))
}

func setString(dst *string, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		*dst = v
	}
}

// Unparseable numbers are ignored so the file value (or default) stands.
func setInt(dst *int, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
