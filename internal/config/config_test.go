package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = `[SMTP]
server = smtp.example.com
port = 587
username = alerts
password = secret
sender_email = alerts@example.com

[ORACLE]
username = scott
password = tiger
dsn = db.example.com:1521/ORCLPDB1

[MONITOR]
table_name = BATCH.JOB_STATUS
field_name = JOB_STATUS
condition_value = FAILED
receiver_email = ops@example.com, dba@example.com
check_interval = 120
`

const sampleYAML = `smtp:
  server: smtp.example.com
  port: 465
  sender_email: alerts@example.com
  insecure_skip_verify: false
oracle:
  driver: postgres
  dsn: postgres://db.example.com/jobs
monitor:
  table_name: job_status
  field_name: status
  condition_value: FAILED
  receiver_email: ops@example.com
  email_subject: Jobs failed
server:
  addr: 127.0.0.1:9090
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func noEnv(string) string { return "" }

func TestParseINI(t *testing.T) {
	path := writeConfig(t, "config.ini", sampleINI)

	c, err := Parse(path)
	require.NoError(t, err)
	ApplyEnv(c, noEnv)
	SetDefaults(c)
	require.NoError(t, Validate(c))

	cfg := NewConfigProvider(c)
	assert.Equal(t, "smtp.example.com", cfg.GetSMTPServer())
	assert.Equal(t, 587, cfg.GetSMTPPort())
	assert.Equal(t, "alerts", cfg.GetSMTPUsername())
	assert.Equal(t, "secret", cfg.GetSMTPPassword())
	assert.Equal(t, "alerts@example.com", cfg.GetSender())
	assert.Equal(t, "oracle", cfg.GetDriver())
	assert.Equal(t, "scott", cfg.GetDBUsername())
	assert.Equal(t, "tiger", cfg.GetDBPassword())
	assert.Equal(t, "db.example.com:1521/ORCLPDB1", cfg.GetDSN())
	assert.Equal(t, "BATCH.JOB_STATUS", cfg.GetTableName())
	assert.Equal(t, "JOB_STATUS", cfg.GetFieldName())
	assert.Equal(t, "FAILED", cfg.GetConditionValue())
	assert.Equal(t, "ops@example.com, dba@example.com", cfg.GetReceiver())
	assert.Equal(t, 120*time.Second, cfg.GetCheckInterval())
	assert.Equal(t, path, cfg.GetSource())
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", sampleYAML)

	c, err := Parse(path)
	require.NoError(t, err)
	SetDefaults(c)
	require.NoError(t, Validate(c))

	cfg := NewConfigProvider(c)
	assert.Equal(t, 465, cfg.GetSMTPPort())
	assert.False(t, cfg.InsecureSkipVerify())
	assert.Equal(t, "postgres", cfg.GetDriver())
	assert.Equal(t, "Jobs failed", cfg.GetEmailSubject())
	assert.Equal(t, "127.0.0.1:9090", cfg.GetServerAddr())
	assert.Equal(t, time.Duration(DefaultCheckInterval)*time.Second, cfg.GetCheckInterval())
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"smtp":{"server":"mail","port":25},"monitor":{"cool_down":5}}`)

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "mail", c.SMTP.Server)
	assert.Equal(t, 25, c.SMTP.Port)
	assert.Equal(t, 5, c.Monitor.CoolDownSeconds)
}

func TestParseInvalidYAML(t *testing.T) {
	path := writeConfig(t, "config.yml", "smtp: [unclosed")

	_, err := Parse(path)
	assert.ErrorIs(t, err, util.ErrConfig)
}

func TestParseMissingFileUsesDefaults(t *testing.T) {
	c, err := Parse(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCheckInterval, c.Monitor.CheckInterval)
	assert.Equal(t, DefaultCoolDown, c.Monitor.CoolDownSeconds)
	assert.Equal(t, DefaultDriver, c.Database.Driver)
	assert.Equal(t, DefaultServerAddr, c.Server.Addr)
}

func TestSetDefaults(t *testing.T) {
	dir := t.TempDir()
	c := &Config{source: filepath.Join(dir, "config.ini")}
	SetDefaults(c)

	cfg := NewConfigProvider(c)
	assert.Equal(t, DefaultEmailSubject, cfg.GetEmailSubject())
	assert.Equal(t, 300*time.Second, cfg.GetCheckInterval())
	assert.Equal(t, 60*time.Second, cfg.GetCoolDown())
	assert.Equal(t, 30*time.Second, cfg.GetSMTPTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetQueryTimeout())
	assert.True(t, cfg.InsecureSkipVerify())
	assert.Equal(t, filepath.Join(dir, "dbalert.log"), cfg.GetLogPath())
	assert.Equal(t, filepath.Join(dir, "dbalert.pid"), cfg.GetPidFile())
	assert.Equal(t, DefaultLogLevel, cfg.GetLogLevel())
}

func TestSetDefaultsBlankSubject(t *testing.T) {
	c := NewConfig()
	c.Monitor.EmailSubject = "   "
	SetDefaults(c)
	assert.Equal(t, DefaultEmailSubject, c.Monitor.EmailSubject)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SMTP_SERVER":               "env-smtp",
		"SMTP_PORT":                 "2525",
		"SMTP_INSECURE_SKIP_VERIFY": "false",
		"DB_DRIVER":                 "sqlite3",
		"ORACLE_DSN":                "file::memory:",
		"MONITOR_TABLE_NAME":        "jobs",
		"MONITOR_CHECK_INTERVAL":    "15",
		"MONITOR_COOL_DOWN":         "not-a-number",
		"MONITOR_EMAIL_SUBJECT":     "  Env subject ",
		"SERVER_ADDR":               ":8081",
		"LOG_LEVEL":                 "debug",
	}

	c := NewConfig()
	c.SMTP.Server = "file-smtp"
	ApplyEnv(c, func(key string) string { return env[key] })

	assert.Equal(t, "env-smtp", c.SMTP.Server)
	assert.Equal(t, 2525, c.SMTP.Port)
	require.NotNil(t, c.SMTP.InsecureSkipVerify)
	assert.False(t, *c.SMTP.InsecureSkipVerify)
	assert.Equal(t, "sqlite3", c.Database.Driver)
	assert.Equal(t, "file::memory:", c.Database.DSN)
	assert.Equal(t, "jobs", c.Monitor.TableName)
	assert.Equal(t, 15, c.Monitor.CheckInterval)
	assert.Equal(t, DefaultCoolDown, c.Monitor.CoolDownSeconds)
	assert.Equal(t, "Env subject", c.Monitor.EmailSubject)
	assert.Equal(t, ":8081", c.Server.Addr)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := writeConfig(t, "config.ini", sampleINI)
	t.Setenv("MONITOR_CONDITION_VALUE", "ERROR")
	t.Setenv("SMTP_PORT", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.GetConditionValue())
	assert.Equal(t, 25, cfg.GetSMTPPort())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := NewConfig()
		c.SMTP.Server = "smtp.example.com"
		c.SMTP.Port = 587
		c.SMTP.SenderEmail = "alerts@example.com"
		c.Database.DSN = "db/ORCL"
		c.Monitor.TableName = "JOBS"
		c.Monitor.FieldName = "STATUS"
		c.Monitor.ConditionValue = "FAILED"
		c.Monitor.ReceiverEmail = "ops@example.com"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "schema qualified table", mutate: func(c *Config) { c.Monitor.TableName = "ETL.JOB$LOG" }},
		{name: "missing smtp server", mutate: func(c *Config) { c.SMTP.Server = "" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.SMTP.Port = 70000 }, wantErr: true},
		{name: "missing port", mutate: func(c *Config) { c.SMTP.Port = 0 }, wantErr: true},
		{name: "unsupported driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "missing receiver", mutate: func(c *Config) { c.Monitor.ReceiverEmail = " " }, wantErr: true},
		{name: "missing condition value", mutate: func(c *Config) { c.Monitor.ConditionValue = "" }, wantErr: true},
		{name: "injected table", mutate: func(c *Config) { c.Monitor.TableName = "JOBS; DROP TABLE JOBS" }, wantErr: true},
		{name: "injected field", mutate: func(c *Config) { c.Monitor.FieldName = "STATUS OR 1=1" }, wantErr: true},
		{name: "empty field", mutate: func(c *Config) { c.Monitor.FieldName = "" }, wantErr: true},
		{name: "oracle descriptor", mutate: func(c *Config) {
			c.Database.DSN = "(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=db)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=ORCL)))"
		}},
		{name: "oracle ipv6", mutate: func(c *Config) { c.Database.DSN = "[::1]:1521/ORCL" }},
		{name: "oracle tns alias", mutate: func(c *Config) { c.Database.DSN = "ORCLPDB1" }, wantErr: true},
		{name: "oracle bad port", mutate: func(c *Config) { c.Database.DSN = "db:port/ORCL" }, wantErr: true},
		{name: "postgres dsn not parsed as oracle", mutate: func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "host=db dbname=jobs"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, util.ErrConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewConfigProviderCopies(t *testing.T) {
	c := NewConfig()
	c.SMTP.Server = "before"
	cfg := NewConfigProvider(c)
	c.SMTP.Server = "after"
	assert.Equal(t, "before", cfg.GetSMTPServer())
}

func TestValidateScope(t *testing.T) {
	mailOnly := NewConfig()
	mailOnly.SMTP.Server = "smtp.example.com"
	mailOnly.SMTP.Port = 465
	mailOnly.SMTP.SenderEmail = "alerts@example.com"

	assert.NoError(t, ValidateScope(mailOnly, ScopeMail))
	assert.ErrorIs(t, ValidateScope(mailOnly, ScopeMonitor), util.ErrConfig)
	assert.ErrorIs(t, Validate(mailOnly), util.ErrConfig)

	mailOnly.SMTP.Server = ""
	assert.ErrorIs(t, ValidateScope(mailOnly, ScopeMail), util.ErrConfig)
}

func TestLoadScopedMailOnly(t *testing.T) {
	path := writeConfig(t, "config.ini", "[SMTP]\nserver = smtp.example.com\nport = 465\nsender_email = alerts@example.com\n")

	cfg, err := LoadScoped(path, ScopeMail)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.GetSMTPServer())

	_, err = Load(path)
	assert.ErrorIs(t, err, util.ErrConfig)
}
