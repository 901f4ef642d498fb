package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// NotifierConfig controls the optional telegram admin alert channel; the
// engine runs without it when no token is set.
type NotifierConfig struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`
}

func (config NotifierConfig) Enabled() bool {
	return config.TelegramToken != ""
}

func (config NotifierConfig) validate() error {
	if config.TelegramToken != "" && config.TelegramChatID == 0 {
		return fmt.Errorf("telegram_chat_id is required when telegram_token is set")
	}
	return nil
}

func (config NotifierConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("notifier.telegram_token", "TELEGRAM_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("notifier.telegram_chat_id", "TELEGRAM_CHAT_ID"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
