package summary

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
)

// Changes lists the fields whose display value differs between before and
// after, in schema order.
func Changes(flow *flows.Flow, before, after form.Data) []string {
	var changed []string
	for _, fld := range flow.Fields() {
		if FormatValue(fld, before[fld.Name]) != FormatValue(fld, after[fld.Name]) {
			changed = append(changed, fld.Name)
		}
	}
	return changed
}

// Diff returns a unified diff of the field listings of before and after.
// It is empty when nothing changed.
func Diff(flow *flows.Flow, id string, before, after form.Data) string {
	a, b := listing(flow, before), listing(flow, after)
	if a == b {
		return ""
	}
	return udiff.Unified(id+" (stored)", id+" (edited)", a, b)
}

// DiffMarkdown wraps Diff in a fenced block so the terminal renderer
// highlights it.
func DiffMarkdown(flow *flows.Flow, id string, before, after form.Data) string {
	d := Diff(flow, id, before, after)
	if d == "" {
		return "_No changes._"
	}
	return "## Changes\n\n```diff\n" + strings.TrimRight(d, "\n") + "\n```"
}

func listing(flow *flows.Flow, data form.Data) string {
	var sb strings.Builder
	for _, fld := range flow.Fields() {
		fmt.Fprintf(&sb, "%s: %s\n", fld.DisplayName(), FormatValue(fld, data[fld.Name]))
	}
	return sb.String()
}
