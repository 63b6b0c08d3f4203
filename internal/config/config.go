package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/ewholloway/slackline/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"slackline"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`

	// Slack API configuration
	Slack SlackConfig `yaml:"slack,inline"`

	// Backlog configuration
	History HistoryConfig `yaml:"history,inline"`

	// Directory cache configuration
	Cache CacheConfig `yaml:"cache,inline"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,inline"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring,inline"`
}

// HistoryConfig holds backlog retrieval configuration
type HistoryConfig struct {
	Backlog int `env:"SLACK_BACKLOG" yaml:"backlog" default:"20"`
}

// CacheConfig holds directory cache configuration
type CacheConfig struct {
	TTL time.Duration `env:"CACHE_TTL" yaml:"ttl" default:"4h"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" yaml:"level" default:"info"`
	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	MetricsEnabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"false"`
	MetricsPort    int  `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if c.History.Backlog <= 0 {
		result = multierror.Append(result, fmt.Errorf("backlog must be greater than 0, got %d", c.History.Backlog))
	}

	if c.Cache.TTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("cache ttl must be greater than 0"))
	}

	if c.Slack.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("slack_timeout must be greater than 0"))
	}

	if c.Monitoring.MetricsEnabled && (c.Monitoring.MetricsPort < 1 || c.Monitoring.MetricsPort > 65535) {
		result = multierror.Append(result, fmt.Errorf("metrics_port must be between 1 and 65535, got %d", c.Monitoring.MetricsPort))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.Logging.Level))
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("slack_token", c.Slack.Masked()),
		logger.IntField("backlog", c.History.Backlog),
		logger.DurationField("cache_ttl", c.Cache.TTL),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
	)
}
