package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/dealflow/internal/config"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█▀▄ █▀▀ ▄▀█ █   █▀▀ █   █▀█ █ █ █"
	logoText2 = "█▄▀ ██▄ █▀█ █▄▄ █▀  █▄▄ █▄█ ▀▄▀▄▀"
)

// Version set via ldflags during build
var version = "dev"

var rootFlags struct {
	backend  string
	dataDir  string
	logLevel string
	flowsDir string
}

// cfg is loaded before every command except setup.
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := fang.Execute(ctx, rootCmd, fang.WithVersion(version))
	stop()
	if err != nil {
		logger.Error("Command execution failed: %v", err)
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

var rootCmd = &cobra.Command{
	Use:               "dealflow",
	Short:             "Guided wizards for real estate funding requests and investor profiles",
	PersistentPreRunE: loadConfig,
}

func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

dealflow walks you through multi-step forms for listing a property that needs
funding or for describing yourself as an investor. Every step is validated as
you type, derived figures such as estimated profit and market score are kept
up to date, and completed requests are stored in an embedded NATS JetStream
event log.

Configuration is loaded from multiple sources with the following precedence:
  CLI flags > Environment variables > Project config > Global config > Defaults

Project config: ./dealflow.yml
Global config: ~/.config/dealflow/dealflow.yml`

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.backend, "backend", "", "Submission backend: nats or simulated")
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for NATS storage and UI state")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.flowsDir, "flows-dir", "", "Directory with custom flow definitions")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(flowsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
}

// loadConfig resolves the configuration and applies the persistent flags
// over it.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.Backend = rootFlags.backend
	}
	if flags.Changed("data-dir") {
		c.DataDir = rootFlags.dataDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("flows-dir") {
		c.FlowsDir = rootFlags.flowsDir
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Configure(c.LogLevel, c.LogFile); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	logger.Debug("Config: backend=%s data_dir=%s flow=%s", c.Backend, c.DataDir, c.Flow)
	cfg = c
	return nil
}
