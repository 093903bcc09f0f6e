package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/state"
	"github.com/mark3labs/dealflow/internal/summary"
	tuiwizard "github.com/mark3labs/dealflow/internal/tui/wizard"
	"github.com/spf13/cobra"
)

var createFlags struct {
	flow    string
	preview bool
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Fill in a new request with the wizard",
	Long: `Open the wizard for a new record.

The flow is taken from --flow, then from the flow used last time, then from
the flow setting of the configuration. Built-in flows: funding-request and
investor-profile.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createFlags.flow, "flow", "f", "", "Flow to run")
	createCmd.Flags().BoolVar(&createFlags.preview, "preview", true, "Open the summary preview when the final step is reached")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ui := state.Load(cfg.DataDir)

	name := pickFlow(createFlags.flow, ui.LastFlow, cfg.Flow)
	if cmd.Flags().Changed("preview") {
		ui.Preview = createFlags.preview
	}

	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	flow, err := a.resolveFlow(name)
	if err != nil {
		return err
	}
	tmpl, err := summary.GetTemplate(cfg.SummaryTemplate)
	if err != nil {
		return err
	}

	m := tuiwizard.New(ctx, flow, tuiwizard.Config{
		Submitter:       a.submitter,
		Loader:          a.loader,
		SubmitTimeout:   cfg.SubmitTimeout,
		SummaryTemplate: tmpl,
		AutoPreview:     ui.Preview,
	})
	res, err := tuiwizard.Run(m)
	if err != nil {
		return err
	}

	ui.LastFlow = flow.Name
	if res.RequestID != "" {
		ui.RememberRequest(res.RequestID)
	}
	if err := state.Save(cfg.DataDir, ui); err != nil {
		logger.Warn("Failed to save UI state: %v", err)
	}

	a.flushHookOutput(os.Stdout)
	printOutcome(flow, res, a.store != nil)
	return nil
}

// pickFlow returns the first non-empty name.
func pickFlow(names ...string) string {
	for _, n := range names {
		if n != "" {
			return n
		}
	}
	return flows.FundingRequest
}

func printOutcome(flow *flows.Flow, res tuiwizard.Result, stored bool) {
	if res.RequestID == "" {
		fmt.Println("Cancelled, nothing was submitted.")
		return
	}
	fmt.Printf("%s submitted: %s\n", flow.Title, res.RequestID)
	if stored {
		fmt.Printf("\nRun 'dealflow requests show %s' to review it.\n", res.RequestID)
	}
}
