package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/dealflow/internal/config"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	project bool
	force   bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create dealflow configuration file",
	Long: `Create a dealflow configuration file with sensible defaults.

By default, creates a global config at ~/.config/dealflow/dealflow.yml.
Use --project to create a project-local config in the current directory.`,
	// Runs without loading the configuration it is about to write.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	c := config.Defaults()
	if cmd.Flags().Changed("backend") {
		c.Backend = rootFlags.backend
	}
	if cmd.Flags().Changed("data-dir") {
		c.DataDir = rootFlags.dataDir
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(c)
	} else {
		err = config.WriteGlobal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'dealflow create' to get started.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
