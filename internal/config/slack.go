package config

import "time"

// SlackConfig holds Slack API configuration
type SlackConfig struct {
	Token   string        `env:"SLACK_TOKEN" yaml:"token"`
	BaseURL string        `env:"SLACK_API_URL" yaml:"base_url" default:"https://slack.com/api/"`
	Timeout time.Duration `env:"SLACK_TIMEOUT" yaml:"timeout" default:"5s"`
}

// Enabled returns true if a token is configured; without one the plugin is
// inert rather than failing.
func (c *SlackConfig) Enabled() bool {
	return c.Token != ""
}

// Masked returns the token safe for logging.
func (c *SlackConfig) Masked() string {
	if c.Token == "" {
		return "(unset)"
	}
	if len(c.Token) <= 8 {
		return "****"
	}
	return c.Token[:4] + "..." + c.Token[len(c.Token)-4:]
}
