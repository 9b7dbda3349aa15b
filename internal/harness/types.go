package harness

// TraceEvent is one invocation or completion in a scenario trace.
type TraceEvent struct {
	Type       string         `json:"type"` // "invocation" or "completion"
	Action     string         `json:"action,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	OutputCase string         `json:"output_case,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Seq        int64          `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all invocations and completions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvocationTrace adds an invocation to the trace.
func (r *Result) AddInvocationTrace(action string, args map[string]any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "invocation",
		Action: action,
		Args:   args,
		Seq:    seq,
	})
}

// AddCompletionTrace adds a completion to the trace.
func (r *Result) AddCompletionTrace(outputCase string, result map[string]any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "completion",
		OutputCase: outputCase,
		Result:     result,
		Seq:        seq,
	})
}
