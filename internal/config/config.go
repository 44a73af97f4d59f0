package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ryan-gang/dbalert/internal/util"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"
)

type SMTP struct {
	Server             string `ini:"server" yaml:"server" json:"server"`
	Port               int    `ini:"port" yaml:"port" json:"port"`
	Username           string `ini:"username" yaml:"username" json:"username"`
	Password           string `ini:"password" yaml:"password" json:"password"`
	SenderEmail        string `ini:"sender_email" yaml:"sender_email" json:"sender_email"`
	InsecureSkipVerify *bool  `ini:"insecure_skip_verify" yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	TimeoutSeconds     int    `ini:"timeout" yaml:"timeout" json:"timeout"`
}

type Database struct {
	Driver              string `ini:"driver" yaml:"driver" json:"driver"`
	Username            string `ini:"username" yaml:"username" json:"username"`
	Password            string `ini:"password" yaml:"password" json:"password"`
	DSN                 string `ini:"dsn" yaml:"dsn" json:"dsn"`
	QueryTimeoutSeconds int    `ini:"query_timeout" yaml:"query_timeout" json:"query_timeout"`
}

type Monitor struct {
	TableName       string `ini:"table_name" yaml:"table_name" json:"table_name"`
	FieldName       string `ini:"field_name" yaml:"field_name" json:"field_name"`
	ConditionValue  string `ini:"condition_value" yaml:"condition_value" json:"condition_value"`
	ReceiverEmail   string `ini:"receiver_email" yaml:"receiver_email" json:"receiver_email"`
	CheckInterval   int    `ini:"check_interval" yaml:"check_interval" json:"check_interval"`
	CoolDownSeconds int    `ini:"cool_down" yaml:"cool_down" json:"cool_down"`
	EmailSubject    string `ini:"email_subject" yaml:"email_subject" json:"email_subject"`
}

type Server struct {
	Addr string `ini:"addr" yaml:"addr" json:"addr"`
}

type Log struct {
	Path  string `ini:"path" yaml:"path" json:"path"`
	Level string `ini:"level" yaml:"level" json:"level"`
}

type Daemon struct {
	PidFile string `ini:"pid_file" yaml:"pid_file" json:"pid_file"`
}

// Config mirrors the sections of config.ini. The [ORACLE] section name is
// kept for existing deployments even when another driver is selected.
type Config struct {
	SMTP     SMTP     `ini:"smtp" yaml:"smtp" json:"smtp"`
	Database Database `ini:"oracle" yaml:"oracle" json:"oracle"`
	Monitor  Monitor  `ini:"monitor" yaml:"monitor" json:"monitor"`
	Server   Server   `ini:"server" yaml:"server" json:"server"`
	Log      Log      `ini:"log" yaml:"log" json:"log"`
	Daemon   Daemon   `ini:"daemon" yaml:"daemon" json:"daemon"`

	source string
}

const (
	DefaultConfigName    = "config.ini"
	DefaultDriver        = "oracle"
	DefaultCheckInterval = 300
	DefaultCoolDown      = 60
	DefaultSMTPTimeout   = 30
	DefaultQueryTimeout  = 30
	DefaultServerAddr    = "0.0.0.0:8080"
	DefaultEmailSubject  = "数据库监控告警"
	DefaultLogLevel      = "info"

	XdgConfigHome    = "XDG_CONFIG_HOME"
	ConfigFolderName = "dbalert"
)

// Table and column names are interpolated into SQL, so they are restricted to
// plain (optionally schema-qualified) identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$#]*(\.[A-Za-z_][A-Za-z0-9_$#]*)?$`)

var supportedDrivers = map[string]bool{
	"oracle":   true,
	"postgres": true,
	"sqlite3":  true,
}

// DefaultConfigPath returns the first config.ini found next to the
// executable, in the working directory or in the XDG config folder. When none
// exists the working directory path is returned.
func DefaultConfigPath() string {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), DefaultConfigName))
	}
	candidates = append(candidates, DefaultConfigName)
	if xdg := os.Getenv(XdgConfigHome); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, ConfigFolderName, DefaultConfigName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", ConfigFolderName, DefaultConfigName))
	}

	for _, candidate := range candidates {
		if exists(candidate) {
			return candidate
		}
	}
	return DefaultConfigName
}

func exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// NewConfig returns a configuration holding only defaults
func NewConfig() *Config {
	return &Config{
		SMTP: SMTP{
			TimeoutSeconds: DefaultSMTPTimeout,
		},
		Database: Database{
			Driver:              DefaultDriver,
			QueryTimeoutSeconds: DefaultQueryTimeout,
		},
		Monitor: Monitor{
			CheckInterval:   DefaultCheckInterval,
			CoolDownSeconds: DefaultCoolDown,
		},
		Server: Server{Addr: DefaultServerAddr},
		Log:    Log{Level: DefaultLogLevel},
	}
}

// Scope selects which sections a command needs
type Scope int

const (
	// ScopeMail needs only [SMTP]: send, serve, config show, daemon stop/status.
	ScopeMail Scope = iota + 1
	// ScopeMonitor needs every section the monitor loop reads.
	ScopeMonitor
)

// Load reads the file, applies environment overrides and defaults and
// validates everything the monitor needs. Every failure wraps util.ErrConfig.
func Load(filename string) (ConfigProvider, error) {
	return LoadScoped(filename, ScopeMonitor)
}

// LoadScoped is Load validating only what scope requires
func LoadScoped(filename string, scope Scope) (ConfigProvider, error) {
	c, err := Parse(filename)
	if err != nil {
		return nil, err
	}
	ApplyEnv(c, os.Getenv)
	SetDefaults(c)
	if err := ValidateScope(c, scope); err != nil {
		return nil, err
	}
	return NewConfigProvider(c), nil
}

// Parse decodes the file according to its extension. A missing file is not
// an error: the environment may carry the whole configuration.
func Parse(filename string) (*Config, error) {
	c := NewConfig()
	c.source = filename

	if !exists(filename) {
		return c, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = decodeFile(filename, func(data []byte) error { return yaml.Unmarshal(data, c) })
	case ".json":
		err = decodeFile(filename, func(data []byte) error { return json.Unmarshal(data, c) })
	default:
		err = parseINI(filename, c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", util.ErrConfig, filename, err)
	}
	return c, nil
}

func decodeFile(filename string, decode func([]byte) error) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return decode(data)
}

func parseINI(filename string, c *Config) error {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		return err
	}
	return f.MapTo(c)
}

// SetDefaults fills values the file and environment left empty
func SetDefaults(c *Config) {
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.QueryTimeoutSeconds <= 0 {
		c.Database.QueryTimeoutSeconds = DefaultQueryTimeout
	}
	if c.Monitor.CheckInterval <= 0 {
		c.Monitor.CheckInterval = DefaultCheckInterval
	}
	if c.Monitor.CoolDownSeconds <= 0 {
		c.Monitor.CoolDownSeconds = DefaultCoolDown
	}
	if strings.TrimSpace(c.Monitor.EmailSubject) == "" {
		c.Monitor.EmailSubject = DefaultEmailSubject
	}
	if c.SMTP.TimeoutSeconds <= 0 {
		c.SMTP.TimeoutSeconds = DefaultSMTPTimeout
	}
	if c.SMTP.InsecureSkipVerify == nil {
		insecure := true
		c.SMTP.InsecureSkipVerify = &insecure
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	dir := filepath.Dir(c.source)
	if c.source == "" {
		dir = "."
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "dbalert.log")
	}
	if c.Daemon.PidFile == "" {
		c.Daemon.PidFile = filepath.Join(dir, "dbalert.pid")
	}
}

// Validate checks every field the monitor loop needs
func Validate(c *Config) error {
	return ValidateScope(c, ScopeMonitor)
}

// ValidateScope checks the fields scope needs
func ValidateScope(c *Config, scope Scope) error {
	var problems []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	require(c.SMTP.Server, "SMTP.server")
	require(c.SMTP.SenderEmail, "SMTP.sender_email")
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SMTP.port %d is out of range", c.SMTP.Port))
	}

	if scope == ScopeMonitor {
		problems = append(problems, monitorProblems(c)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", util.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func monitorProblems(c *Config) []string {
	var problems []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	if !supportedDrivers[c.Database.Driver] {
		problems = append(problems, fmt.Sprintf("ORACLE.driver %q is not supported", c.Database.Driver))
	}
	require(c.Database.DSN, "ORACLE.dsn")
	if c.Database.Driver == "oracle" && strings.TrimSpace(c.Database.DSN) != "" {
		if err := checkOracleDSN(c.Database.DSN); err != nil {
			problems = append(problems, "ORACLE.dsn: "+err.Error())
		}
	}

	require(c.Monitor.ConditionValue, "MONITOR.condition_value")
	require(c.Monitor.ReceiverEmail, "MONITOR.receiver_email")
	if !identifierPattern.MatchString(c.Monitor.TableName) {
		problems = append(problems, fmt.Sprintf("MONITOR.table_name %q is not a valid identifier", c.Monitor.TableName))
	}
	if !identifierPattern.MatchString(c.Monitor.FieldName) {
		problems = append(problems, fmt.Sprintf("MONITOR.field_name %q is not a valid identifier", c.Monitor.FieldName))
	}
	return problems
}
