package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/worktrack/internal/auth"
	"github.com/roach88/worktrack/internal/model"
)

// Scenario is a scripted worktrack session. It drives the real services over
// in-memory storage and asserts on the resulting trace and final records.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the calendar day the scenario starts on. Empty means the
	// deterministic clock's default day.
	Today string `yaml:"today,omitempty"`

	// Policy is the password policy ("any" or "role"). Empty means "any".
	Policy string `yaml:"policy,omitempty"`

	// Setup contains actions run before the flow. Every setup action must
	// succeed.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the steps under test, each with an optional expectation.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and records.
	Assertions []Assertion `yaml:"assertions"`
}

// ActionStep is a single action in the setup section.
type ActionStep struct {
	// Action is the action name (e.g. "Plan.submit").
	Action string `yaml:"action"`

	// Args contains the action arguments.
	Args map[string]any `yaml:"args"`
}

// FlowStep invokes an action and optionally checks its outcome.
type FlowStep struct {
	Invoke string         `yaml:"invoke"`
	Args   map[string]any `yaml:"args"`
	Expect *ExpectClause  `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Case is "Success" or the error code the step must fail with
	// (e.g. "EDIT_CAP_REACHED").
	Case string `yaml:"case"`

	// Result is a subset match against the step's result fields.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Action is used by trace_contains and trace_count.
	Action string `yaml:"action,omitempty"`

	// Args is a subset match against the invocation args (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Table names a record collection (final_state): users, planned_tasks,
	// eod_reports or session.
	Table string `yaml:"table,omitempty"`

	// Where selects exactly one record by field equality (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is a subset match against the selected record (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of invocations (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected invocation order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Action names understood by the harness.
const (
	ActionLogin      = "Auth.login"
	ActionLogout     = "Auth.logout"
	ActionSubmitPlan = "Plan.submit"
	ActionSubmitEOD  = "EOD.submit"
	ActionCreateUser = "User.create"
	ActionUpdateUser = "User.update"
	ActionDeleteUser = "User.delete"
	ActionSetDay     = "Clock.setDay"
)

// CaseSuccess is the outcome of a step that did not fail.
const CaseSuccess = "Success"

var knownActions = []string{
	ActionLogin, ActionLogout, ActionSubmitPlan, ActionSubmitEOD,
	ActionCreateUser, ActionUpdateUser, ActionDeleteUser, ActionSetDay,
}

// Final-state tables.
const (
	TableUsers        = "users"
	TablePlannedTasks = "planned_tasks"
	TableEODReports   = "eod_reports"
	TableSession      = "session"
)

var knownTables = []string{TableUsers, TablePlannedTasks, TableEODReports, TableSession}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Today != "" {
		if _, err := model.ParseDate(s.Today); err != nil {
			return fmt.Errorf("today: %w", err)
		}
	}
	if s.Policy != "" {
		if _, err := auth.ParsePolicy(s.Policy); err != nil {
			return err
		}
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if !slices.Contains(knownActions, step.Action) {
			return fmt.Errorf("setup[%d]: unknown action %q", i, step.Action)
		}
	}
	for i, step := range s.Flow {
		if !slices.Contains(knownActions, step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if !slices.Contains(knownTables, a.Table) {
			return fmt.Errorf("assertions[%d]: table must be one of %v", index, knownTables)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
