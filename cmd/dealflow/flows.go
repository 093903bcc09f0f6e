package main

import (
	"fmt"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "Inspect the available flows",
}

var flowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom flows",
	Args:  cobra.NoArgs,
	RunE:  runFlowsList,
}

var flowsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a flow definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlowsShow,
}

func init() {
	flowsCmd.AddCommand(flowsListCmd)
	flowsCmd.AddCommand(flowsShowCmd)
}

func runFlowsList(cmd *cobra.Command, args []string) error {
	names, err := flows.NamesIn(cfg.FlowsDir)
	if err != nil {
		return err
	}
	for _, name := range names {
		flow, err := flows.Resolve(name, cfg.FlowsDir)
		if err != nil {
			fmt.Printf("  %-20s (invalid: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-20s %s, %d steps\n", flow.Name, flow.Title, len(flow.Steps))
	}
	return nil
}

func runFlowsShow(cmd *cobra.Command, args []string) error {
	flow, err := flows.Resolve(args[0], cfg.FlowsDir)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
