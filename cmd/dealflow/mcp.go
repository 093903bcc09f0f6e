package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/dealflow/internal/config"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpFlags struct {
	http string
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the flows and request store as MCP tools",
	Long: `Start an MCP server exposing the flow validators, derived field
calculators and the request store. The server speaks stdio by default; use
--http to serve streamable HTTP on an address instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpFlags.http, "http", "", "Serve streamable HTTP on this address (e.g. 127.0.0.1:8765)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv := mcpserver.New(mcpserver.Deps{
		Store:         a.store,
		Submitter:     a.submitter,
		Loader:        a.loader,
		FlowsDir:      cfg.FlowsDir,
		Hooks:         a.hooks,
		WorkDir:       a.workDir,
		SubmitTimeout: cfg.SubmitTimeout,
	}, version)

	if mcpFlags.http == "" {
		if cfg.Backend == config.BackendSimulated {
			logger.Warn("MCP server running on the simulated backend; request tools are unavailable")
		}
		return srv.ServeStdio()
	}

	if _, err := srv.Start(ctx, mcpFlags.http); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "MCP server listening on %s\n", srv.URL())

	<-ctx.Done()
	return srv.Stop()
}
