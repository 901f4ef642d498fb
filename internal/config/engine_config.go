package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type EngineConfig struct {
	MaxRadiusMiles          float64       `mapstructure:"max_radius_miles"`
	OfferTimeout            time.Duration `mapstructure:"offer_timeout"`
	DiscoveryInterval       time.Duration `mapstructure:"discovery_interval"`
	DiscoveryWindowDays     int           `mapstructure:"discovery_window_days"`
	ResumeCutoffHours       float64       `mapstructure:"resume_cutoff_hours"`
	CandidateLogDepth       int           `mapstructure:"candidate_log_depth"`
	SmsMaxRequestsPerSecond float32       `mapstructure:"sms_max_requests_per_second"`
}

func engineDefaults() {
	viper.SetDefault("engine.max_radius_miles", 25.0)
	viper.SetDefault("engine.offer_timeout", 15*time.Minute)
	viper.SetDefault("engine.discovery_interval", 5*time.Minute)
	viper.SetDefault("engine.discovery_window_days", 7)
	viper.SetDefault("engine.resume_cutoff_hours", 24.0)
	viper.SetDefault("engine.candidate_log_depth", 5)
	viper.SetDefault("engine.sms_max_requests_per_second", 10.0)
}

func (config EngineConfig) validate() error {

	var errs []error

	if config.MaxRadiusMiles <= 0 {
		errs = append(errs, fmt.Errorf("max_radius_miles must be greater than zero"))
	}
	if config.OfferTimeout <= 0 {
		errs = append(errs, fmt.Errorf("offer_timeout must be greater than zero"))
	}
	if config.DiscoveryInterval <= 0 {
		errs = append(errs, fmt.Errorf("discovery_interval must be greater than zero"))
	}
	if config.DiscoveryWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("discovery_window_days must be greater than zero"))
	}
	if config.ResumeCutoffHours < 0 {
		errs = append(errs, fmt.Errorf("resume_cutoff_hours must not be negative"))
	}
	if config.CandidateLogDepth <= 0 {
		errs = append(errs, fmt.Errorf("candidate_log_depth must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config EngineConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("engine.offer_timeout", "OFFER_TIMEOUT"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("engine.discovery_interval", "DISCOVERY_INTERVAL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("engine.max_radius_miles", "MAX_RADIUS_MILES"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
