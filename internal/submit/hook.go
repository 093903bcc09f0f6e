package submit

import (
	"context"

	"github.com/mark3labs/dealflow/internal/hooks"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/wizard"
)

// Hooked runs the post_submit hooks after every successful submission. Hook
// failures are logged and never fail the submission.
type Hooked struct {
	next    wizard.Submitter
	hooks   []*hooks.HookConfig
	workDir string
	output  func(requestID, output string)
}

// WithHook decorates next. With no hooks configured it returns next as is.
// onOutput, when non-nil, receives the combined output of the hooks.
func WithHook(next wizard.Submitter, cfg *hooks.Config, workDir string, onOutput func(requestID, output string)) wizard.Submitter {
	if cfg == nil || len(cfg.Hooks.PostSubmit) == 0 {
		return next
	}
	return &Hooked{next: next, hooks: cfg.Hooks.PostSubmit, workDir: workDir, output: onOutput}
}

// Submit implements wizard.Submitter.
func (h *Hooked) Submit(ctx context.Context, sub wizard.Submission) (wizard.Receipt, error) {
	receipt, err := h.next.Submit(ctx, sub)
	if err != nil {
		return receipt, err
	}

	mode, status := "create", "pending"
	if sub.ID != "" {
		mode, status = "update", ""
	}
	out, err := hooks.ExecuteAll(ctx, h.hooks, h.workDir, hooks.Variables{
		RequestID: receipt.RequestID,
		Flow:      sub.Flow,
		Mode:      mode,
		Title:     sub.Data.String("title"),
		Status:    status,
	})
	if err != nil {
		logger.Warn("post_submit hook interrupted for %s: %v", receipt.RequestID, err)
		return receipt, nil
	}
	if out != "" && h.output != nil {
		h.output(receipt.RequestID, out)
	}
	return receipt, nil
}
