// Package hooks runs user-configured shell commands after a request is
// submitted or changes status.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/dealflow/internal/logger"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".dealflow.hooks.yml"

// LoadConfig loads the hooks configuration from workDir. A missing file is
// not an error: it returns nil.
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	logger.Debug("Loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables are expanded as {{request_id}}, {{flow}}, {{mode}}, {{title}}
// and {{status}} in hook commands, and exported as DEALFLOW_* environment
// variables.
type Variables struct {
	RequestID string
	Flow      string
	Mode      string // create, update or status
	Title     string
	Status    string
}

func (v Variables) pairs() [][2]string {
	return [][2]string{
		{"request_id", v.RequestID},
		{"flow", v.Flow},
		{"mode", v.Mode},
		{"title", v.Title},
		{"status", v.Status},
	}
}

// Execute runs a hook command and returns its output. A failing or timed out
// command is reported in the output, not as an error; only cancellation of
// ctx is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second
	cmd.Env = os.Environ()
	for _, kv := range vars.pairs() {
		cmd.Env = append(cmd.Env, "DEALFLOW_"+strings.ToUpper(kv[0])+"="+kv[1])
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	return output, nil
}

// ExecuteAll runs hooks in order and joins their non-empty outputs.
func ExecuteAll(ctx context.Context, hooks []*HookConfig, workDir string, vars Variables) (string, error) {
	var outputs []string
	for _, hook := range hooks {
		out, err := Execute(ctx, hook, workDir, vars)
		if err != nil {
			return strings.Join(outputs, "\n"), err
		}
		if out != "" {
			outputs = append(outputs, out)
		}
	}
	return strings.Join(outputs, "\n"), nil
}

func expandVariables(command string, vars Variables) string {
	result := command
	for _, kv := range vars.pairs() {
		result = strings.ReplaceAll(result, "{{"+kv[0]+"}}", kv[1])
	}
	return result
}
