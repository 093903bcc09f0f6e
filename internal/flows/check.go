package flows

import (
	"fmt"
	"os"
	"sort"

	"github.com/mark3labs/dealflow/internal/derive"
	"github.com/mark3labs/dealflow/internal/form"
	"gopkg.in/yaml.v3"
)

// StepReport is the validation outcome of one step.
type StepReport struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Valid  bool        `json:"valid"`
	Errors form.Errors `json:"errors,omitempty"`
}

// Report is the outcome of checking a complete record against a flow
// without running the wizard.
type Report struct {
	Flow    string       `json:"flow"`
	Steps   []StepReport `json:"steps"`
	Derived form.Data    `json:"derived,omitempty"`
	Unknown []string     `json:"unknown,omitempty"`
}

// Valid reports whether every step passed and no unknown fields were given.
func (r Report) Valid() bool {
	if len(r.Unknown) > 0 {
		return false
	}
	for _, s := range r.Steps {
		if !s.Valid {
			return false
		}
	}
	return true
}

// Check recomputes the derived fields of data and validates every step.
// data is not modified.
func (f *Flow) Check(data form.Data) Report {
	rec := data.Clone()
	for _, fld := range f.Fields() {
		if fld.Kind == form.KindDerived {
			delete(rec, fld.Name)
		}
	}
	derived := derive.Recompute(f.derivers, rec)
	rec.Merge(derived)

	report := Report{Flow: f.Name, Derived: derived}
	for _, step := range f.Steps {
		res := form.ValidateStep(step, rec)
		report.Steps = append(report.Steps, StepReport{
			ID:     step.ID,
			Title:  step.Title,
			Valid:  res.Valid,
			Errors: res.Errors,
		})
	}
	for key := range data {
		if _, _, ok := f.Field(key); !ok {
			report.Unknown = append(report.Unknown, key)
		}
	}
	sort.Strings(report.Unknown)
	return report
}

// ReadData reads a record from a YAML or JSON file.
func ReadData(path string) (form.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var data form.Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if data == nil {
		data = form.Data{}
	}
	return data, nil
}
