package form

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Data is the flat field record shared by every step of a wizard.
type Data map[string]any

// Clone returns a shallow copy with file collections copied.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		switch files := v.(type) {
		case []string:
			v = append([]string(nil), files...)
		case []any:
			v = append([]any(nil), files...)
		}
		out[k] = v
	}
	return out
}

// Merge copies every key of partial into d.
func (d Data) Merge(partial Data) {
	maps.Copy(d, partial)
}

// String returns the value for key rendered as a string.
func (d Data) String(key string) string {
	return AsString(d[key])
}

// Number returns the value for key as a float64, or 0 when absent or invalid.
func (d Data) Number(key string) float64 {
	n, err := ParseNumber(d[key])
	if err != nil {
		return 0
	}
	return n
}

// Files returns the value for key as a file collection.
func (d Data) Files(key string) []string {
	return AsFiles(d[key])
}

// AsString renders a field value as a string.
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		return strings.Join(AsFiles(v), ", ")
	default:
		return fmt.Sprint(v)
	}
}

// AsFiles converts a field value to a file collection.
// Comma separated strings are split so terminal input and JSON arrays agree.
func AsFiles(value any) []string {
	var out []string
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(AsString(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// IsEmpty reports whether a value counts as not entered.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(AsFiles(v)) == 0
	case []any:
		return len(AsFiles(v)) == 0
	default:
		return false
	}
}
