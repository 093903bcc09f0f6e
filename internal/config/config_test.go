package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the global config at a temp dir, moves into another temp
// dir for the project config, and clears DEALFLOW_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	for _, key := range keys {
		env := "DEALFLOW_" + strings.ToUpper(key)
		t.Setenv(env, "")
		_ = os.Unsetenv(env)
	}
	return tmpDir
}

func TestGlobalPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/dealflow/dealflow.yml", GlobalPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	got := GlobalPath()
	assert.True(t, filepath.IsAbs(got))
	assert.True(t, strings.HasSuffix(got, filepath.Join(".config", "dealflow", "dealflow.yml")))
}

func TestProjectPath(t *testing.T) {
	assert.Equal(t, "dealflow.yml", ProjectPath())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	assert.False(t, Exists())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	global := Defaults()
	global.Backend = BackendSimulated
	global.LogLevel = "warn"
	global.SimulatedDelay = 2 * time.Second
	require.NoError(t, WriteGlobal(global))
	assert.True(t, Exists())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSimulated, cfg.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.SimulatedDelay)

	project := Defaults()
	project.Backend = BackendSimulated
	project.LogLevel = "debug"
	project.Flow = "investor-profile"
	require.NoError(t, WriteProject(project))

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "project overrides global")
	assert.Equal(t, "investor-profile", cfg.Flow)

	t.Setenv("DEALFLOW_LOG_LEVEL", "error")
	t.Setenv("DEALFLOW_SUBMIT_TIMEOUT", "5s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "env overrides files")
	assert.Equal(t, 5*time.Second, cfg.SubmitTimeout)
}

func TestWriteProject_RoundTripsDurations(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.SubmitTimeout = 45 * time.Second
	require.NoError(t, WriteProject(cfg))

	data, err := os.ReadFile(ProjectPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "submit_timeout: 45s")

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, got.SubmitTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"simulated without data dir", func(c *Config) { c.Backend = BackendSimulated; c.DataDir = "" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "postgres" }, true},
		{"nats without data dir", func(c *Config) { c.DataDir = "" }, true},
		{"empty flow", func(c *Config) { c.Flow = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative timeout", func(c *Config) { c.SubmitTimeout = -time.Second }, true},
		{"negative delay", func(c *Config) { c.SimulatedDelay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
