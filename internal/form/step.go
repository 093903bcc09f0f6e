package form

// Step is the declarative schema of one wizard step.
type Step struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Errors maps a field name to its failure message. Only failing fields are
// present.
type Errors map[string]string

// StepResult is the outcome of validating every field of a step.
type StepResult struct {
	Valid  bool   `json:"valid"`
	Errors Errors `json:"errors,omitempty"`
}

// Field returns the named field of the step.
func (s Step) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ValidateStep runs the validators for exactly the fields declared by step.
// The step is valid when every field is valid.
func ValidateStep(step Step, data Data) StepResult {
	res := StepResult{Valid: true, Errors: Errors{}}
	for _, f := range step.Fields {
		r := f.Validate(data[f.Name], data)
		if !r.Valid {
			res.Valid = false
			res.Errors[f.Name] = r.Message
		}
	}
	return res
}

// First returns the first failing field of step in schema order.
func (e Errors) First(step Step) (string, string, bool) {
	for _, f := range step.Fields {
		if msg, ok := e[f.Name]; ok {
			return f.Name, msg, true
		}
	}
	return "", "", false
}

// Clone returns a copy of the error map.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
