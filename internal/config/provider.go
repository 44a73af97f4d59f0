package config

import "time"

// ConfigProvider defines the interface for configuration access
type ConfigProvider interface {
	GetSMTPServer() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSender() string
	GetSMTPTimeout() time.Duration
	InsecureSkipVerify() bool

	GetDriver() string
	GetDBUsername() string
	GetDBPassword() string
	GetDSN() string
	GetQueryTimeout() time.Duration

	GetTableName() string
	GetFieldName() string
	GetConditionValue() string
	GetReceiver() string
	GetCheckInterval() time.Duration
	GetCoolDown() time.Duration
	GetEmailSubject() string

	GetServerAddr() string
	GetLogPath() string
	GetLogLevel() string
	GetPidFile() string
	GetSource() string
}

// ConfigImpl implements ConfigProvider interface
type ConfigImpl struct {
	cfg Config
}

// NewConfigProvider creates a new ConfigProvider instance. The config is
// copied so later changes to cfg are not observed.
func NewConfigProvider(cfg *Config) ConfigProvider {
	return &ConfigImpl{cfg: *cfg}
}

func (c *ConfigImpl) GetSMTPServer() string {
	return c.cfg.SMTP.Server
}

func (c *ConfigImpl) GetSMTPPort() int {
	return c.cfg.SMTP.Port
}

func (c *ConfigImpl) GetSMTPUsername() string {
	return c.cfg.SMTP.Username
}

func (c *ConfigImpl) GetSMTPPassword() string {
	return c.cfg.SMTP.Password
}

func (c *ConfigImpl) GetSender() string {
	return c.cfg.SMTP.SenderEmail
}

func (c *ConfigImpl) GetSMTPTimeout() time.Duration {
	return time.Duration(c.cfg.SMTP.TimeoutSeconds) * time.Second
}

func (c *ConfigImpl) InsecureSkipVerify() bool {
	return c.cfg.SMTP.InsecureSkipVerify == nil || *c.cfg.SMTP.InsecureSkipVerify
}

func (c *ConfigImpl) GetDriver() string {
	return c.cfg.Database.Driver
}

func (c *ConfigImpl) GetDBUsername() string {
	return c.cfg.Database.Username
}

func (c *ConfigImpl) GetDBPassword() string {
	return c.cfg.Database.Password
}

func (c *ConfigImpl) GetDSN() string {
	return c.cfg.Database.DSN
}

func (c *ConfigImpl) GetQueryTimeout() time.Duration {
	return time.Duration(c.cfg.Database.QueryTimeoutSeconds) * time.Second
}

func (c *ConfigImpl) GetTableName() string {
	return c.cfg.Monitor.TableName
}

func (c *ConfigImpl) GetFieldName() string {
	return c.cfg.Monitor.FieldName
}

func (c *ConfigImpl) GetConditionValue() string {
	return c.cfg.Monitor.ConditionValue
}

func (c *ConfigImpl) GetReceiver() string {
	return c.cfg.Monitor.ReceiverEmail
}

func (c *ConfigImpl) GetCheckInterval() time.Duration {
	return time.Duration(c.cfg.Monitor.CheckInterval) * time.Second
}

func (c *ConfigImpl) GetCoolDown() time.Duration {
	return time.Duration(c.cfg.Monitor.CoolDownSeconds) * time.Second
}

func (c *ConfigImpl) GetEmailSubject() string {
	return c.cfg.Monitor.EmailSubject
}

func (c *ConfigImpl) GetServerAddr() string {
	return c.cfg.Server.Addr
}

func (c *ConfigImpl) GetLogPath() string {
	return c.cfg.Log.Path
}

func (c *ConfigImpl) GetLogLevel() string {
	return c.cfg.Log.Level
}

func (c *ConfigImpl) GetPidFile() string {
	return c.cfg.Daemon.PidFile
}

func (c *ConfigImpl) GetSource() string {
	return c.cfg.source
}
