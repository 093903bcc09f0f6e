package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/state"
	"github.com/mark3labs/dealflow/internal/summary"
	tuiwizard "github.com/mark3labs/dealflow/internal/tui/wizard"
	"github.com/mark3labs/dealflow/internal/wizard"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a stored request with the wizard",
	Long: `Open a stored request in edit mode. All steps are shown as pages and the
request keeps its id when saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	flow, err := a.resolveFlow(req.Flow)
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
	})
	if err := m.LoadForEdit(ctx, id); err != nil {
		return err
	}
	res, err := tuiwizard.Run(m)
	if err != nil {
		return err
	}

	a.flushHookOutput(os.Stdout)
	if res.Route != wizard.RequestRoute(id) {
		fmt.Println("No changes saved.")
		return nil
	}

	ui := state.Load(cfg.DataDir)
	ui.RememberRequest(id)
	if err := state.Save(cfg.DataDir, ui); err != nil {
		logger.Warn("Failed to save UI state: %v", err)
	}

	updated, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(summary.Terminal(summary.Markdown(flow, updated.Data, summary.Meta{
		RequestID: updated.ID,
		Status:    string(updated.Status),
		Revision:  updated.Revision,
	}), 0))
	return nil
}
