// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Submission backends.
const (
	BackendNATS      = "nats"
	BackendSimulated = "simulated"
)

// Config holds all configuration values for dealflow.
type Config struct {
	Flow            string        `mapstructure:"flow" yaml:"flow"`
	Backend         string        `mapstructure:"backend" yaml:"backend"`
	DataDir         string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string        `mapstructure:"log_file" yaml:"log_file"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
	SimulatedDelay  time.Duration `mapstructure:"simulated_delay" yaml:"simulated_delay"`
	FlowsDir        string        `mapstructure:"flows_dir" yaml:"flows_dir"`
	SummaryTemplate string        `mapstructure:"summary_template" yaml:"summary_template"`
}

var keys = []string{
	"flow",
	"backend",
	"data_dir",
	"log_level",
	"log_file",
	"submit_timeout",
	"simulated_delay",
	"flows_dir",
	"summary_template",
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Flow:           "funding-request",
		Backend:        BackendNATS,
		DataDir:        ".dealflow",
		LogLevel:       "info",
		SubmitTimeout:  30 * time.Second,
		SimulatedDelay: 1500 * time.Millisecond,
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("dealflow")

	d := Defaults()
	v.SetDefault("flow", d.Flow)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("submit_timeout", d.SubmitTimeout)
	v.SetDefault("simulated_delay", d.SimulatedDelay)
	v.SetDefault("flows_dir", "")
	v.SetDefault("summary_template", "")

	v.SetEnvPrefix("DEALFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range keys {
		if err := v.BindEnv(key, "DEALFLOW_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		logger.Debug("Loaded global config from %s", globalPath)
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
		logger.Debug("Merged project config from %s", projectPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNATS, BackendSimulated:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendNATS, BackendSimulated, c.Backend)
	}
	if c.Backend == BackendNATS && c.DataDir == "" {
		return fmt.Errorf("data_dir is required for the %s backend", BackendNATS)
	}
	if c.Flow == "" {
		return fmt.Errorf("flow is required")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SubmitTimeout < 0 {
		return fmt.Errorf("submit_timeout cannot be negative")
	}
	if c.SimulatedDelay < 0 {
		return fmt.Errorf("simulated_delay cannot be negative")
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path:
// $XDG_CONFIG_HOME/dealflow/dealflow.yml or ~/.config/dealflow/dealflow.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dealflow", "dealflow.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dealflow", "dealflow.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "dealflow.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
