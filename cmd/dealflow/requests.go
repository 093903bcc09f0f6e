package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/colorprofile"
	"github.com/mark3labs/dealflow/internal/hooks"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/summary"
	"github.com/mark3labs/dealflow/internal/tui/theme"
	"github.com/spf13/cobra"
)

var requestsFlags struct {
	status string
	flow   string
	json   bool
}

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "List, inspect and move stored requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored requests, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRequestsList,
}

var requestsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the summary of a request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestsShow,
}

var requestsStatusCmd = &cobra.Command{
	Use:   "status <id> <pending|funded|closed>",
	Short: "Move a request along its lifecycle",
	Long: `Set the status of a request. Closed requests cannot change again.
Hooks listed under post_status in .dealflow.hooks.yml run afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runRequestsStatus,
}

func init() {
	requestsListCmd.Flags().StringVar(&requestsFlags.status, "status", "", "Only requests with this status")
	requestsListCmd.Flags().StringVar(&requestsFlags.flow, "flow", "", "Only requests of this flow")
	requestsShowCmd.Flags().BoolVar(&requestsFlags.json, "json", false, "Print the stored record as JSON")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsShowCmd)
	requestsCmd.AddCommand(requestsStatusCmd)
}

func runRequestsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filter := requests.ListFilter{Flow: requestsFlags.flow}
	if requestsFlags.status != "" {
		st, err := requests.ParseStatus(requestsFlags.status)
		if err != nil {
			return err
		}
		filter.Status = st
	}

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	list, err := a.store.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No requests found.")
		return nil
	}
	fmt.Println(requestTable(list))
	return nil
}

func requestTable(list []*requests.Request) string {
	t := theme.Current()
	header := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)).Padding(0, 1)

	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			r.ID,
			string(r.Status),
			r.Title,
			r.Flow,
			strconv.Itoa(r.Revision),
			r.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.BgSurface2))).
		Headers("ID", "STATUS", "TITLE", "FLOW", "REV", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 1 {
				return cell.Foreground(lipgloss.Color(statusColor(list[row].Status)))
			}
			return cell
		}).
		String()
}

func statusColor(s requests.Status) string {
	t := theme.Current()
	switch s {
	case requests.StatusFunded:
		return t.Success
	case requests.StatusClosed:
		return t.FgMuted
	default:
		return t.Warning
	}
}

func runRequestsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req, err := a.store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if requestsFlags.json {
		data, err := json.MarshalIndent(req, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		profile := colorprofile.Detect(os.Stdout, os.Environ())
		fmt.Println(summary.Highlight(string(data), "json", profile))
		return nil
	}

	flow, err := a.resolveFlow(req.Flow)
	if err != nil {
		return err
	}
	fmt.Println(summary.Terminal(summary.Markdown(flow, req.Data, summary.Meta{
		RequestID: req.ID,
		Status:    string(req.Status),
		Revision:  req.Revision,
	}), 0))
	return nil
}

func runRequestsStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	status, err := requests.ParseStatus(args[1])
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req, err := a.store.SetStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", req.ID, req.Status)

	if a.hooks == nil || len(a.hooks.Hooks.PostStatus) == 0 {
		return nil
	}
	out, err := hooks.ExecuteAll(ctx, a.hooks.Hooks.PostStatus, a.workDir, hooks.Variables{
		RequestID: req.ID,
		Flow:      req.Flow,
		Mode:      "status",
		Title:     req.Title,
		Status:    string(req.Status),
	})
	if out != "" {
		fmt.Printf("\n[post_status]\n%s\n", out)
	}
	return err
}
