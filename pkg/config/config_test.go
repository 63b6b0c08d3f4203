package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Token   string        `env:"TEST_TOKEN" yaml:"token"`
	Timeout time.Duration `env:"TEST_TIMEOUT" yaml:"timeout" default:"5s"`
}

type testConfig struct {
	Name    string   `env:"TEST_NAME" yaml:"name" default:"fallback"`
	Count   int      `env:"TEST_COUNT" yaml:"count" default:"20"`
	Debug   bool     `env:"TEST_DEBUG" yaml:"debug" default:"false"`
	Targets []string `env:"TEST_TARGETS" yaml:"targets"`
	Nested  nested   `yaml:"nested,inline"`
}

type requiredConfig struct {
	Token string `env:"TEST_REQ_TOKEN" yaml:"token" required:"true"`
}

func TestDefaultsApplied(t *testing.T) {
	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "fallback", cfg.Name)
	assert.Equal(t, 20, cfg.Count)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Nested.Timeout)
}

func TestEnvWins(t *testing.T) {
	t.Setenv("TEST_NAME", "from-env")
	t.Setenv("TEST_COUNT", "7")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_TARGETS", "a, b,c")
	t.Setenv("TEST_TIMEOUT", "250ms")

	var cfg testConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 7, cfg.Count)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Targets)
	assert.Equal(t, 250*time.Millisecond, cfg.Nested.Timeout)
}

func TestRequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := GetConfigFromEnvVars(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_REQ_TOKEN")
}

func TestRequiredSatisfiedByEnv(t *testing.T) {
	t.Setenv("TEST_REQ_TOKEN", "tok")

	var cfg requiredConfig
	require.NoError(t, GetConfigFromEnvVars(&cfg))
	assert.Equal(t, "tok", cfg.Token)
}

func TestYAMLFileWithEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-yaml\ncount: 3\n"), 0o600))
	t.Setenv("TEST_COUNT", "9")

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))

	assert.Equal(t, "from-yaml", cfg.Name)
	assert.Equal(t, 9, cfg.Count, "env overlays yaml")
}

func TestMissingFileFallsBackWhenAllowed(t *testing.T) {
	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, "/does/not/exist.yaml", true))
	assert.Equal(t, "fallback", cfg.Name)

	var strict testConfig
	assert.Error(t, GetConfig(&strict, "/does/not/exist.yaml", false))
}

type invalidConfig struct {
	Count int `env:"TEST_INVALID_COUNT" yaml:"count" default:"1"`
}

func (c invalidConfig) Validate() error {
	if c.Count > 10 {
		return assert.AnError
	}
	return nil
}

func TestValidatorRuns(t *testing.T) {
	t.Setenv("TEST_INVALID_COUNT", "11")

	var cfg invalidConfig
	assert.Error(t, GetConfigFromEnvVars(&cfg))

	t.Setenv("TEST_INVALID_COUNT", "2")
	var ok invalidConfig
	assert.NoError(t, GetConfigFromEnvVars(&ok))
}

type ptrValidatedConfig struct {
	Count int `env:"TEST_PTR_COUNT" yaml:"count" default:"1"`
}

func (c *ptrValidatedConfig) Validate() error {
	if c.Count > 10 {
		return assert.AnError
	}
	return nil
}

func TestValidatorRunsWithPointerReceiver(t *testing.T) {
	t.Setenv("TEST_PTR_COUNT", "11")

	var cfg ptrValidatedConfig
	assert.Error(t, GetConfigFromEnvVars(&cfg))
}
