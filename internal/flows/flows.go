// Package flows loads the wizard variants. Each flow is an ordered list of
// step schemas plus the derivers that keep its computed fields in sync.
package flows

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/dealflow/internal/derive"
	"github.com/mark3labs/dealflow/internal/form"
	"gopkg.in/yaml.v3"
)

// Built-in flow names.
const (
	FundingRequest  = "funding-request"
	InvestorProfile = "investor-profile"
)

//go:embed defs/*.yaml
var defs embed.FS

// ErrUnknownFlow is returned when no flow has the requested name.
var ErrUnknownFlow = errors.New("unknown flow")

// Flow is one wizard variant.
type Flow struct {
	Name        string      `yaml:"name" json:"name"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Derived     []string    `yaml:"derived,omitempty" json:"derived,omitempty"`
	Steps       []form.Step `yaml:"steps" json:"steps"`

	derivers []derive.Deriver
}

// Derivers returns the resolved derivers of the flow.
func (f *Flow) Derivers() []derive.Deriver {
	return f.derivers
}

// Field finds a field by name across all steps.
func (f *Flow) Field(name string) (form.Field, int, bool) {
	for i, step := range f.Steps {
		if fld, ok := step.Field(name); ok {
			return fld, i, true
		}
	}
	return form.Field{}, -1, false
}

// Fields returns every field of the flow in step order.
func (f *Flow) Fields() []form.Field {
	var out []form.Field
	for _, step := range f.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

// ValidateField validates a single value by field name.
func (f *Flow) ValidateField(name string, value any, all form.Data) form.Result {
	fld, _, ok := f.Field(name)
	if !ok {
		return form.Result{Valid: false, Message: fmt.Sprintf("unknown field %q", name)}
	}
	return fld.Validate(value, all)
}

// ValidateStep validates the step at index.
func (f *Flow) ValidateStep(index int, data form.Data) (form.StepResult, error) {
	if index < 0 || index >= len(f.Steps) {
		return form.StepResult{}, fmt.Errorf("step %d out of range (flow has %d steps)", index, len(f.Steps))
	}
	return form.ValidateStep(f.Steps[index], data), nil
}

// ValidateAll validates every step and returns the combined error map.
func (f *Flow) ValidateAll(data form.Data) form.StepResult {
	res := form.StepResult{Valid: true, Errors: form.Errors{}}
	for _, step := range f.Steps {
		sr := form.ValidateStep(step, data)
		if !sr.Valid {
			res.Valid = false
			for k, v := range sr.Errors {
				res.Errors[k] = v
			}
		}
	}
	return res
}

// Validate checks the flow definition itself.
func (f *Flow) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("flow name is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %s: at least one step is required", f.Name)
	}

	seen := make(map[string]string)
	stepIDs := make(map[string]struct{})
	for _, step := range f.Steps {
		if step.ID == "" {
			return fmt.Errorf("flow %s: step %q has no id", f.Name, step.Title)
		}
		if _, dup := stepIDs[step.ID]; dup {
			return fmt.Errorf("flow %s: duplicate step id %q", f.Name, step.ID)
		}
		stepIDs[step.ID] = struct{}{}

		for _, fld := range step.Fields {
			if fld.Name == "" {
				return fmt.Errorf("flow %s: step %s has a field without a name", f.Name, step.ID)
			}
			if other, dup := seen[fld.Name]; dup {
				return fmt.Errorf("flow %s: field %q declared in steps %s and %s", f.Name, fld.Name, other, step.ID)
			}
			seen[fld.Name] = step.ID

			switch fld.Kind {
			case form.KindText, form.KindLongText, form.KindNumber, form.KindFiles, form.KindDerived:
			case form.KindEnum:
				if len(fld.Options) == 0 {
					return fmt.Errorf("flow %s: enum field %q has no options", f.Name, fld.Name)
				}
			default:
				return fmt.Errorf("flow %s: field %q has unknown kind %q", f.Name, fld.Name, fld.Kind)
			}
		}
	}

	f.derivers = f.derivers[:0]
	for _, name := range f.Derived {
		d, ok := derive.Lookup(name)
		if !ok {
			return fmt.Errorf("flow %s: unknown deriver %q (known: %s)", f.Name, name, strings.Join(derive.Names(), ", "))
		}
		fld, _, ok := f.Field(d.Output)
		if !ok {
			return fmt.Errorf("flow %s: deriver %s writes %q which is not a field", f.Name, name, d.Output)
		}
		if fld.Kind != form.KindDerived {
			return fmt.Errorf("flow %s: field %q is computed by %s and must be kind derived", f.Name, fld.Name, name)
		}
		f.derivers = append(f.derivers, d)
	}
	return nil
}

// Parse decodes and validates a flow definition.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing flow: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load returns the built-in flow with the given name.
func Load(name string) (*Flow, error) {
	data, err := defs.ReadFile(path.Join("defs", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownFlow, name, strings.Join(Names(), ", "))
	}
	return Parse(data)
}

// LoadFile reads a user-provided flow definition.
func LoadFile(p string) (*Flow, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading flow file: %w", err)
	}
	return Parse(data)
}

// Resolve loads name from dir when a matching file exists there, falling back
// to the built-in flows.
func Resolve(name, dir string) (*Flow, error) {
	if dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, name+ext)
			if _, err := os.Stat(p); err == nil {
				return LoadFile(p)
			}
		}
	}
	return Load(name)
}

// Names lists the built-in flows.
func Names() []string {
	entries, err := defs.ReadDir("defs")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// NamesIn lists the built-in flows merged with the flow files in dir.
func NamesIn(dir string) ([]string, error) {
	seen := map[string]bool{}
	for _, n := range Names() {
		seen[n] = true
	}
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading flows dir: %w", err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
