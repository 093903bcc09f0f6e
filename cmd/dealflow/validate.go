package main

import (
	"fmt"
	"sort"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/summary"
	"github.com/mark3labs/dealflow/internal/tui/theme"
	"github.com/spf13/cobra"
)

var validateFlags struct {
	flow string
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a YAML or JSON record against a flow",
	Long: `Validate a complete record without opening the wizard. Derived fields are
recomputed, every step is validated and unknown keys are reported. The
command fails when the record would not be accepted by the wizard.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlags.flow, "flow", "f", "", "Flow to validate against (default: configured flow)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := flows.ReadData(args[0])
	if err != nil {
		return err
	}
	flow, err := flows.Resolve(pickFlow(validateFlags.flow, cfg.Flow), cfg.FlowsDir)
	if err != nil {
		return err
	}

	report := flow.Check(data)
	s := theme.Current().S()

	for i, step := range report.Steps {
		if step.Valid {
			fmt.Printf("%s %d. %s\n", s.Success.Render("✓"), i+1, step.Title)
			continue
		}
		fmt.Printf("%s %d. %s\n", s.Error.Render("✗"), i+1, step.Title)
		fields := make([]string, 0, len(step.Errors))
		for name := range step.Errors {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		for _, name := range fields {
			fmt.Printf("    %s: %s\n", name, step.Errors[name])
		}
	}

	for _, fld := range flow.Fields() {
		if v, ok := report.Derived[fld.Name]; ok {
			fmt.Printf("  %s %s\n", s.Derived.Render(fld.DisplayName()+":"), summary.FormatValue(fld, v))
		}
	}
	for _, key := range report.Unknown {
		fmt.Printf("%s unknown field %q\n", s.Warning.Render("!"), key)
	}

	if !report.Valid() {
		return fmt.Errorf("%s does not satisfy flow %s", args[0], flow.Name)
	}
	fmt.Println(s.Success.Render("Record is valid."))
	return nil
}
