package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(t *testing.T, level Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFile, "")
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(level)
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"Warning": LevelWarn,
		"error":   LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, buf := newBuffered(t, LevelWarn)

	l.Debug("derivers recomputed")
	l.Info("step %d valid", 2)
	l.Warn("hook %s slow", "notify")
	l.Error("submit failed: %v", "timeout")

	out := buf.String()
	assert.NotContains(t, out, "derivers recomputed")
	assert.NotContains(t, out, "step 2 valid")
	assert.Contains(t, out, "[WARN] hook notify slow")
	assert.Contains(t, out, "[ERROR] submit failed: timeout")
}

func TestLogger_Named(t *testing.T) {
	l, buf := newBuffered(t, LevelInfo)

	l.Named("submit").Info("request %s stored", "REQ-1")
	assert.Contains(t, buf.String(), "[INFO] submit: request REQ-1 stored")
}

func TestNew_ReadsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.log")
	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFile, path)

	l := New()
	assert.Equal(t, LevelDebug, l.Level())

	l.Debug("flow %s loaded", "investor-profile")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "flow investor-profile loaded")

	require.NoError(t, l.Close(), "closing twice is harmless")
}

func TestLogger_Configure(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFile, "")

	path := filepath.Join(t.TempDir(), "dealflow.log")
	l := New()
	defer func() { _ = l.Close() }()

	require.NoError(t, l.Configure("debug", path))
	assert.Equal(t, LevelDebug, l.Level())

	l.Debug("wizard started for %s", "funding-request")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG] wizard started for funding-request")

	require.Error(t, l.Configure("loud", ""))
	require.Error(t, l.Configure("", filepath.Join(t.TempDir(), "missing", "x.log")))
}

func TestLogger_ConfigureEnvWins(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	t.Setenv(EnvFile, "")
	l := New()
	require.NoError(t, l.Configure("debug", ""))
	assert.Equal(t, LevelError, l.Level())
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prevLevel := Default.Level()
	Default.SetOutput(&buf)
	Default.SetLevel(LevelDebug)
	t.Cleanup(func() {
		Default.SetOutput(nil)
		Default.SetLevel(prevLevel)
	})

	Debug("debug %s", "one")
	Info("info %s", "two")
	Warn("warn %s", "three")
	Error("error %s", "four")

	out := buf.String()
	for _, want := range []string{"debug one", "info two", "warn three", "error four"} {
		assert.Contains(t, out, want)
	}
}
