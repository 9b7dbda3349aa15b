package harness

import (
	"fmt"

	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/workflow"
)

// argSet reads typed values out of decoded YAML. The first type mismatch is
// kept in err and later reads return zero values.
type argSet struct {
	m   map[string]any
	err error
}

func argReader(m map[string]any) *argSet {
	return &argSet{m: m}
}

func (a *argSet) fail(key, want string, v any) {
	if a.err == nil {
		a.err = fmt.Errorf("arg %q: expected %s, got %T", key, want, v)
	}
}

func (a *argSet) has(key string) bool {
	_, ok := a.m[key]
	return ok
}

func (a *argSet) str(key string) string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.fail(key, "string", v)
		return ""
	}
	return s
}

// strs accepts a list of strings or a single string.
func (a *argSet) strs(key string) []string {
	v, ok := a.m[key]
	if !ok || v == nil {
		return nil
	}
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				a.fail(key, "list of strings", item)
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	a.fail(key, "list of strings", v)
	return nil
}

func (a *argSet) float(key string) float64 {
	v, ok := a.m[key]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		a.fail(key, "number", v)
	}
	return f
}

// userInput overlays the user fields present in args onto base. Role is
// passed through unchecked so schema validation sees bad values.
func (a *argSet) userInput(base workflow.UserInput) workflow.UserInput {
	in := base
	for key, dst := range map[string]*string{
		"email":      &in.Email,
		"name":       &in.Name,
		"department": &in.Department,
		"position":   &in.Position,
		"phone":      &in.Phone,
	} {
		if a.has(key) {
			*dst = a.str(key)
		}
	}
	if a.has("role") {
		in.Role = model.Role(a.str("role"))
	}
	return in
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
