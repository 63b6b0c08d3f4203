package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/ewholloway/slackline/internal/config"
	"github.com/ewholloway/slackline/internal/directory"
	"github.com/ewholloway/slackline/internal/gateway"
	pkgconfig "github.com/ewholloway/slackline/pkg/config"
	"github.com/ewholloway/slackline/pkg/logger"
	"github.com/ewholloway/slackline/pkg/metrics"
)

// getLogger retrieves the logger stored in app metadata by the Before hook.
func getLogger(ctx *cli.Context) logger.Logger {
	if l, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
		return l
	}
	return logger.NewLogger(logger.Config{Level: logger.InfoLevel, Format: "json", Service: "slackline"})
}

// loadConfig loads the application configuration honoring the --config-file
// flag and environment variables.
func loadConfig(ctx *cli.Context) (*config.AppConfig, error) {
	cfg := &config.AppConfig{}
	if err := pkgconfig.GetConfig(cfg, ctx.String("config-file"), true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildMetrics constructs the metrics collectors and starts the promhttp
// listener when monitoring is enabled; otherwise it returns nil and the
// components skip counting.
func buildMetrics(cfg *config.AppConfig, log logger.Logger) *metrics.Metrics {
	if !cfg.Monitoring.MetricsEnabled {
		return nil
	}
	m := metrics.NewMetrics(log)
	m.Listen(cfg.Monitoring.MetricsPort)
	return m
}

// buildDirectory constructs the gateway, directory and metrics used by the
// resolve, history and mark commands.
func buildDirectory(cfg *config.AppConfig, log logger.Logger) (*gateway.Client, *directory.Directory, *metrics.Metrics) {
	m := buildMetrics(cfg, log)
	gw := gateway.New(cfg.Slack.Token, log,
		gateway.WithBaseURL(cfg.Slack.BaseURL),
		gateway.WithTimeout(cfg.Slack.Timeout),
		gateway.WithMetrics(m),
	)
	dir := directory.New(gw, log,
		directory.WithTTL(cfg.Cache.TTL),
		directory.WithMetrics(m),
	)
	return gw, dir, m
}
