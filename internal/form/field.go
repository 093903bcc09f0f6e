// Package form holds the declarative field schemas of a wizard flow and the
// validators that interpret them.
package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies how a field value is entered and validated.
type Kind string

const (
	KindText     Kind = "text"     // Single-line free text
	KindLongText Kind = "longtext" // Multi-line narrative text
	KindNumber   Kind = "number"   // Numeric amount, price, rate or duration
	KindEnum     Kind = "enum"     // One value from a fixed option set
	KindFiles    Kind = "files"    // Collection of uploaded file names
	KindDerived  Kind = "derived"  // Computed by a deriver, never user input
)

// Compare is the comparison a numeric field must satisfy.
type Compare string

const (
	CompareNone        Compare = ""             // Any parsable number
	ComparePositive    Compare = "positive"     // > 0
	CompareNonNegative Compare = "non_negative" // >= 0
)

// Format is a display hint for numeric values. It never affects validation.
type Format string

const (
	FormatPlain    Format = ""
	FormatCurrency Format = "currency"
	FormatPercent  Format = "percent"
	FormatMonths   Format = "months"
	FormatScore    Format = "score"
)

// Field is the rule set for a single form field.
type Field struct {
	Name      string   `yaml:"name" json:"name"`
	Label     string   `yaml:"label" json:"label"`
	Kind      Kind     `yaml:"kind" json:"kind"`
	Required  bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Compare   Compare  `yaml:"compare,omitempty" json:"compare,omitempty"`
	Options   []string `yaml:"options,omitempty" json:"options,omitempty"`
	MinLength int      `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MinItems  int      `yaml:"min_items,omitempty" json:"min_items,omitempty"`
	Format    Format   `yaml:"format,omitempty" json:"format,omitempty"`
	Help      string   `yaml:"help,omitempty" json:"help,omitempty"`
}

// Result is the outcome of validating one field value.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func ok() Result { return Result{Valid: true} }

func fail(format string, args ...any) Result {
	return Result{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// DisplayName returns the label, falling back to the field name.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Validate checks value against the field's rules. all is the full record.
func (f Field) Validate(value any, all Data) Result {
	return ValidateField(f, value, all)
}

// ValidateField checks a value against a field's rule set.
func ValidateField(f Field, value any, _ Data) Result {
	switch f.Kind {
	case KindDerived:
		return ok()
	case KindNumber:
		return validateNumber(f, value)
	case KindEnum:
		return validateEnum(f, value)
	case KindFiles:
		return validateFiles(f, value)
	default:
		return validateText(f, value, f.MinLength)
	}
}

func validateText(f Field, value any, minLength int) Result {
	s := strings.TrimSpace(AsString(value))
	if s == "" {
		if f.Required {
			return fail("%s is required", f.DisplayName())
		}
		return ok()
	}
	if minLength > 0 && utf8.RuneCountInString(s) < minLength {
		return fail("%s must be at least %d characters", f.DisplayName(), minLength)
	}
	return ok()
}

func validateNumber(f Field, value any) Result {
	if IsEmpty(value) {
		if f.Required {
			return fail("%s is required", f.DisplayName())
		}
		return ok()
	}
	n, err := ParseNumber(value)
	if err != nil {
		return fail("%s must be a number", f.DisplayName())
	}
	switch f.Compare {
	case ComparePositive:
		if n <= 0 {
			return fail("%s must be greater than 0", f.DisplayName())
		}
	case CompareNonNegative:
		if n < 0 {
			return fail("%s cannot be negative", f.DisplayName())
		}
	}
	return ok()
}

func validateEnum(f Field, value any) Result {
	s := strings.TrimSpace(AsString(value))
	if s == "" {
		if f.Required {
			return fail("%s is required", f.DisplayName())
		}
		return ok()
	}
	for _, opt := range f.Options {
		if s == opt {
			return ok()
		}
	}
	return fail("%s must be one of: %s", f.DisplayName(), strings.Join(f.Options, ", "))
}

func validateFiles(f Field, value any) Result {
	need := f.MinItems
	if need == 0 && f.Required {
		need = 1
	}
	if len(AsFiles(value)) < need {
		if need == 1 {
			return fail("%s: at least one file is required", f.DisplayName())
		}
		return fail("%s: at least %d files are required", f.DisplayName(), need)
	}
	return ok()
}

// ParseNumber converts a user-entered or decoded value to a float64.
// Thousands separators, a leading "$" and a trailing "%" are accepted as
// display formatting.
func ParseNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return checkFinite(v)
	case float32:
		return checkFinite(float64(v))
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, fmt.Errorf("empty number")
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %q: %w", v, err)
		}
		return checkFinite(n)
	case nil:
		return 0, fmt.Errorf("empty number")
	default:
		return 0, fmt.Errorf("unsupported number type %T", value)
	}
}

func checkFinite(n float64) (float64, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("number is not finite")
	}
	return n, nil
}
