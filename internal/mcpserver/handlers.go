package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/dealflow/internal/derive"
	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/hooks"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/summary"
	"github.com/mark3labs/dealflow/internal/wizard"
	"github.com/mark3labs/mcp-go/mcp"
)

var errNoStore = errors.New("request storage is not available with the simulated backend")

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// flowArg resolves the "flow" argument.
func (s *Server) flowArg(args map[string]any) (*flows.Flow, *mcp.CallToolResult) {
	name, _ := args["flow"].(string)
	if name == "" {
		return nil, mcp.NewToolResultError("missing 'flow' parameter")
	}
	flow, err := s.deps.Resolve(name)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return flow, nil
}

// dataArg reads the "data" object. Missing data is an empty record.
func dataArg(args map[string]any) (form.Data, *mcp.CallToolResult) {
	raw, ok := args["data"]
	if !ok || raw == nil {
		return form.Data{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, mcp.NewToolResultError("'data' is not an object")
	}
	return form.Data(m), nil
}

func (s *Server) handleListFlows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Steps       int    `json:"steps"`
		Error       string `json:"error,omitempty"`
	}
	names, err := flows.NamesIn(s.deps.FlowsDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out []entry
	for _, name := range names {
		flow, err := s.deps.Resolve(name)
		if err != nil {
			out = append(out, entry{Name: name, Error: err.Error()})
			continue
		}
		out = append(out, entry{Name: flow.Name, Title: flow.Title, Description: flow.Description, Steps: len(flow.Steps)})
	}
	return jsonResult(out), nil
}

func (s *Server) handleDescribeFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flow, errRes := s.flowArg(request.GetArguments())
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(flow), nil
}

func (s *Server) handleValidateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	flow, errRes := s.flowArg(args)
	if errRes != nil {
		return errRes, nil
	}
	name, _ := args["field"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing 'field' parameter"), nil
	}
	if _, _, ok := flow.Field(name); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown field %q in flow %s", name, flow.Name)), nil
	}
	return jsonResult(flow.ValidateField(name, args["value"], nil)), nil
}

// stepIndex accepts a step id or a 1-based number.
func stepIndex(flow *flows.Flow, ref string) (int, bool) {
	for i, step := range flow.Steps {
		if step.ID == ref {
			return i, true
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(flow.Steps) {
		return 0, false
	}
	return n - 1, true
}

func (s *Server) handleValidateStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	flow, errRes := s.flowArg(args)
	if errRes != nil {
		return errRes, nil
	}
	data, errRes := dataArg(args)
	if errRes != nil {
		return errRes, nil
	}

	var ref string
	switch v := args["step"].(type) {
	case string:
		ref = v
	case float64:
		ref = strconv.Itoa(int(v))
	}
	idx, ok := stepIndex(flow, ref)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown step %q in flow %s", ref, flow.Name)), nil
	}

	res, err := flow.ValidateStep(idx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		Step string `json:"step"`
		form.StepResult
	}{Step: flow.Steps[idx].ID, StepResult: res}), nil
}

func (s *Server) handleDerive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	flow, errRes := s.flowArg(args)
	if errRes != nil {
		return errRes, nil
	}
	data, errRes := dataArg(args)
	if errRes != nil {
		return errRes, nil
	}

	out := form.Data{}
	for _, d := range flow.Derivers() {
		out[d.Output] = d.Compute(data)
	}
	if _, ok := out[derive.ProfitDeriver.Output]; ok {
		out["fees"] = derive.EstimateProfit(
			data.Number("purchasePrice"),
			data.Number("rehabCost"),
			data.Number("arv"),
		).Fees
	}
	return jsonResult(out), nil
}

type submitResult struct {
	Submitted   bool        `json:"submitted"`
	RequestID   string      `json:"request_id,omitempty"`
	Mode        string      `json:"mode"`
	SubmittedAt string      `json:"submitted_at,omitempty"`
	Step        string      `json:"blocked_step,omitempty"`
	Errors      form.Errors `json:"errors,omitempty"`
}

func (s *Server) handleSubmitRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	flow, errRes := s.flowArg(args)
	if errRes != nil {
		return errRes, nil
	}
	data, errRes := dataArg(args)
	if errRes != nil {
		return errRes, nil
	}
	if s.deps.Submitter == nil {
		return mcp.NewToolResultError("no submission backend configured"), nil
	}
	for name := range data {
		if _, _, ok := flow.Field(name); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown field %q in flow %s", name, flow.Name)), nil
		}
	}

	opts := []wizard.Option{wizard.WithSubmitter(s.deps.Submitter)}
	if s.deps.Loader != nil {
		opts = append(opts, wizard.WithLoader(s.deps.Loader))
	}
	if s.deps.SubmitTimeout > 0 {
		opts = append(opts, wizard.WithSubmitTimeout(s.deps.SubmitTimeout))
	}
	c := wizard.New(flow, opts...)

	id, _ := args["id"].(string)
	mode := "create"
	if id != "" {
		mode = "update"
		if err := c.LoadForEdit(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := setFields(c, flow.Fields(), data); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		if err := c.Start(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for i, step := range flow.Steps {
			if err := setFields(c, step.Fields, data); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if i == len(flow.Steps)-1 {
				break
			}
			if err := c.Next(); err != nil {
				return blockedResult(flow, c, mode, err)
			}
		}
	}

	receipt, err := c.Submit(ctx)
	if err != nil {
		return blockedResult(flow, c, mode, err)
	}
	return jsonResult(submitResult{
		Submitted:   true,
		RequestID:   receipt.RequestID,
		Mode:        mode,
		SubmittedAt: receipt.SubmittedAt.UTC().Format(time.RFC3339),
	}), nil
}

func setFields(c *wizard.Controller, fields []form.Field, data form.Data) error {
	for _, fld := range fields {
		if fld.Kind == form.KindDerived {
			continue
		}
		if v, ok := data[fld.Name]; ok {
			if err := c.SetField(fld.Name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func blockedResult(flow *flows.Flow, c *wizard.Controller, mode string, err error) (*mcp.CallToolResult, error) {
	var blocked *wizard.StepBlockedError
	if errors.As(err, &blocked) {
		return jsonResult(submitResult{
			Mode:   mode,
			Step:   flow.Steps[blocked.Step].ID,
			Errors: c.Errors(),
		}), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) handleGetRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	args := request.GetArguments()
	id, _ := args["id"].(string)
	if id == "" {
		return mcp.NewToolResultError("missing 'id' parameter"), nil
	}

	req, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if want, _ := args["summary"].(bool); want {
		flow, err := s.deps.Resolve(req.Flow)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(summary.Markdown(flow, req.Data, summary.Meta{
			RequestID: req.ID,
			Status:    string(req.Status),
			Revision:  req.Revision,
		})), nil
	}
	return jsonResult(req), nil
}

func (s *Server) handleListRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	args := request.GetArguments()

	var filter requests.ListFilter
	if st, _ := args["status"].(string); st != "" {
		status, err := requests.ParseStatus(st)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Status = status
	}
	filter.Flow, _ = args["flow"].(string)

	list, err := s.deps.Store.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No requests found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d request(s):", len(list))
	for _, req := range list {
		fmt.Fprintf(&sb, "\n  %s [%s] %s (%s)", req.ID, req.Status, req.Title, req.Flow)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	args := request.GetArguments()
	id, _ := args["id"].(string)
	if id == "" {
		return mcp.NewToolResultError("missing 'id' parameter"), nil
	}
	raw, _ := args["status"].(string)
	status, err := requests.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req, err := s.deps.Store.SetStatus(ctx, id, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := fmt.Sprintf("%s is now %s", req.ID, req.Status)
	if s.deps.Hooks != nil && len(s.deps.Hooks.Hooks.PostStatus) > 0 {
		out, err := hooks.ExecuteAll(ctx, s.deps.Hooks.Hooks.PostStatus, s.deps.WorkDir, hooks.Variables{
			RequestID: req.ID,
			Flow:      req.Flow,
			Mode:      "status",
			Title:     req.Title,
			Status:    string(req.Status),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if out != "" {
			msg += "\n\n[post_status]\n" + out
		}
	}
	return mcp.NewToolResultText(msg), nil
}
