package cmdutil

import (
	"github.com/ryan-gang/dbalert/internal/config"
	"github.com/ryan-gang/dbalert/internal/logger"
	"github.com/ryan-gang/dbalert/internal/util"
	"github.com/spf13/cobra"
)

// LoadConfigFromFlags loads configuration using the config flag from the command
func LoadConfigFromFlags(cmd *cobra.Command, scope config.Scope) (config.ConfigProvider, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return config.LoadScoped(configPath, scope)
}

// LoadConfigOrExit loads configuration and prints the error if it fails.
// Callers exit when nil is returned.
func LoadConfigOrExit(cmd *cobra.Command, scope config.Scope) config.ConfigProvider {
	cfg, err := LoadConfigFromFlags(cmd, scope)
	if err != nil {
		util.LogError(util.ConfigError, "loading configuration", err)
		return nil
	}
	return cfg
}

// NewLoggerOrExit builds the console and file logger. Callers exit when nil
// is returned.
func NewLoggerOrExit(cfg config.ConfigProvider) logger.LoggerInterface {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		util.LogError(util.FileError, "opening log file", err)
		return nil
	}
	return log
}
