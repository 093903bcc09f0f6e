// Package derive computes read-only form fields from their declared inputs.
package derive

import (
	"reflect"
	"sort"

	"github.com/mark3labs/dealflow/internal/form"
)

// Deriver computes one output field from a fixed set of input fields.
// Compute must be pure and total: missing or invalid inputs count as zero.
type Deriver struct {
	Name    string
	Output  string
	Inputs  []string
	Compute func(data form.Data) any
}

// DependsOn reports whether field is one of the deriver's inputs.
func (d Deriver) DependsOn(field string) bool {
	for _, in := range d.Inputs {
		if in == field {
			return true
		}
	}
	return false
}

var registry = map[string]Deriver{
	ProfitDeriver.Name:      ProfitDeriver,
	MarketScoreDeriver.Name: MarketScoreDeriver,
}

// Lookup returns the registered deriver with the given name.
func Lookup(name string) (Deriver, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names lists the registered deriver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Recompute evaluates every deriver against data and returns only the output
// keys whose value differs from what data currently holds. The caller merges
// the result into its record.
func Recompute(derivers []Deriver, data form.Data) form.Data {
	changed := form.Data{}
	for _, d := range derivers {
		v := d.Compute(data)
		if old, ok := data[d.Output]; ok && sameValue(old, v) {
			continue
		}
		changed[d.Output] = v
	}
	return changed
}

// sameValue compares numeric values by value so an int decoded from YAML or
// JSON equals the float64 a deriver computes. Strings are never numeric here.
func sameValue(a, b any) bool {
	_, strA := a.(string)
	_, strB := b.(string)
	if !strA && !strB {
		x, errA := form.ParseNumber(a)
		y, errB := form.ParseNumber(b)
		if errA == nil && errB == nil {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}
