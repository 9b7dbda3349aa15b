package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/worktrack/internal/store"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s assertion failed\n", e.Type)
	fmt.Fprintf(&sb, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&sb, "  Actual:   %s", e.Actual)
	if len(e.Trace) > 0 {
		sb.WriteString("\n  Trace:")
		for _, event := range e.Trace {
			if event.Type == "invocation" {
				fmt.Fprintf(&sb, "\n    [%d] %s %v", event.Seq, event.Action, event.Args)
			} else {
				fmt.Fprintf(&sb, "\n    [%d] -> %s", event.Seq, event.OutputCase)
			}
		}
	}
	return sb.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st *store.Store) []string {
	var errs []string
	for i, assertion := range assertions {
		if err := evaluateAssertion(ctx, result.Trace, assertion, st); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(ctx context.Context, trace []TraceEvent, assertion Assertion, st *store.Store) error {
	switch assertion.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, assertion)
	case AssertTraceOrder:
		return assertTraceOrder(trace, assertion)
	case AssertTraceCount:
		return assertTraceCount(trace, assertion)
	case AssertFinalState:
		return assertFinalState(ctx, st, assertion)
	}
	return fmt.Errorf("unknown assertion type %q", assertion.Type)
}

// assertTraceContains checks that an invocation of the action with matching
// args exists.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == "invocation" && event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}
	expected := assertion.Action
	if len(assertion.Args) > 0 {
		expected = fmt.Sprintf("%s with args %v", assertion.Action, assertion.Args)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first invocation of each action appears in
// the given order.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type != "invocation" {
			continue
		}
		if _, seen := positions[event.Action]; !seen {
			positions[event.Action] = i + 1 // 1-indexed for readability
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(assertion.Actions); i++ {
		prev, curr := assertion.Actions[i-1], assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the action was invoked exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == "invocation" && event.Action == assertion.Action {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState selects exactly one record from a collection with Where
// and checks the fields in Expect. Field names are the persisted JSON names
// (e.g. editCount, userId).
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	rows, err := tableRows(ctx, st, assertion.Table)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("read table %s", assertion.Table),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	var matched []map[string]any
	for _, row := range rows {
		if matchArgs(row, assertion.Where) {
			matched = append(matched, row)
		}
	}
	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhere(assertion.Where)),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhere(assertion.Where)),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(matched)),
		}
	}

	row := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s", key, assertion.Table),
			}
		}
		if !valuesEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expected),
				Actual:   fmt.Sprintf("field %q = %v", key, actual),
			}
		}
	}
	return nil
}

// tableRows returns a collection as generic JSON objects.
func tableRows(ctx context.Context, st *store.Store, table string) ([]map[string]any, error) {
	var records any
	var err error
	switch table {
	case TableUsers:
		records, err = st.ListUsers(ctx)
	case TablePlannedTasks:
		records, err = st.ListPlannedTasks(ctx)
	case TableEODReports:
		records, err = st.ListEODReports(ctx)
	case TableSession:
		user, uerr := st.CurrentUser(ctx)
		if uerr != nil || user == nil {
			return nil, uerr
		}
		records = []any{user}
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// matchArgs reports whether actual contains every key of expected with an
// equal value. Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares values decoded from YAML, JSON or built in Go.
// Numbers compare by value whatever their Go type.
func valuesEqual(expected, actual any) bool {
	return reflect.DeepEqual(normalize(expected), normalize(actual))
}

func normalize(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	switch v := v.(type) {
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	}
	return v
}

func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(all rows)"
	}
	parts := make([]string, 0, len(where))
	for _, key := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, where[key]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
