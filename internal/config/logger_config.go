package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type logLevel string

const (
	LevelInfo    logLevel = "INFO"
	LevelDebug   logLevel = "DEBUG"
	LevelWarning logLevel = "WARNING"
	LevelError   logLevel = "ERROR"
	LevelFatal   logLevel = "FATAL"
)

// LoggerConfig controls the engine's log output: level, the file the
// MultiWriter appends to, and the optional Loki push target.
type LoggerConfig struct {
	LogLevel   logLevel `mapstructure:"log_level"`
	AppName    string   `mapstructure:"app_name"`
	OutputFile string   `mapstructure:"output_file"`

	LokiURL      string `mapstructure:"loki_url"`
	LokiUser     string `mapstructure:"loki_user"`
	LokiPassword string `mapstructure:"loki_password"`
}

func (config LoggerConfig) validate() error {
	var errs []error

	if config.LogLevel == "" {
		errs = append(errs, fmt.Errorf("missing variable: log_level"))
	}
	if config.OutputFile == "" {
		errs = append(errs, fmt.Errorf("missing variable: output_file"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config LoggerConfig) bindEnvironmentVariables() error {
	var errs []error

	bindings := map[string]string{
		"logger.log_level":     "LOG_LEVEL",
		"logger.app_name":      "APP_NAME",
		"logger.loki_url":      "LOKI_URL",
		"logger.loki_user":     "LOKI_USER",
		"logger.loki_password": "LOKI_PASSWORD",
	}
	for key, envVar := range bindings {
		if err := viper.BindEnv(key, envVar); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
