// Package schema validates worktrack records against CUE definitions.
//
// The definitions live in records.cue, embedded at build time. A record is
// encoded to JSON, compiled as CUE and unified with its definition; any
// conflict, missing field or unknown field is reported with its path.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/worktrack/internal/model"
)

//go:embed records.cue
var recordsCUE string

// Kind names a record definition.
type Kind string

const (
	KindUser        Kind = "#User"
	KindPlannedTask Kind = "#PlannedTask"
	KindEODReport   Kind = "#EODReport"
)

// Issue is one validation failure.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every issue found in one record.
type ValidationError struct {
	Kind   Kind
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		if issue.Field != "" {
			parts[i] = issue.Field + ": " + issue.Message
		} else {
			parts[i] = issue.Message
		}
	}
	return fmt.Sprintf("invalid %s: %s", strings.TrimPrefix(string(e.Kind), "#"), strings.Join(parts, "; "))
}

// Validator holds the compiled definitions.
// It is not safe for concurrent use.
type Validator struct {
	ctx  *cue.Context
	defs cue.Value
}

// New compiles the embedded definitions.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	defs := ctx.CompileString(recordsCUE, cue.Filename("records.cue"))
	if err := defs.Err(); err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Validator{ctx: ctx, defs: defs}, nil
}

// MustNew is New for package-level initialisation in tests and main.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateUser checks a user record.
func (v *Validator) ValidateUser(u model.User) error {
	return v.validate(KindUser, u)
}

// ValidatePlannedTask checks a planned task record.
func (v *Validator) ValidatePlannedTask(t model.PlannedTask) error {
	return v.validate(KindPlannedTask, t)
}

// ValidateEODReport checks an end-of-day report record.
func (v *Validator) ValidateEODReport(r model.EODReport) error {
	return v.validate(KindEODReport, r)
}

func (v *Validator) validate(kind Kind, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	def := v.defs.LookupPath(cue.ParsePath(string(kind)))
	if !def.Exists() {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	value := v.ctx.CompileBytes(data, cue.Filename(strings.TrimPrefix(string(kind), "#")+".json"))
	if err := value.Err(); err != nil {
		return fmt.Errorf("compile %s: %w", kind, err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return toValidationError(kind, err)
	}
	return nil
}

// toValidationError flattens CUE errors into issues keyed by field path.
func toValidationError(kind Kind, err error) *ValidationError {
	verr := &ValidationError{Kind: kind}
	for _, e := range errors.Errors(err) {
		field := fieldPath(kind, e.Path())
		message := e.Error()
		if field != "" {
			format, args := e.Msg()
			message = fmt.Sprintf(format, args...)
		}
		verr.Issues = append(verr.Issues, Issue{Field: field, Message: message})
	}
	if len(verr.Issues) == 0 {
		verr.Issues = []Issue{{Message: err.Error()}}
	}
	return verr
}

// fieldPath drops the definition selector from a CUE path.
func fieldPath(kind Kind, path []string) string {
	if len(path) > 0 && path[0] == string(kind) {
		path = path[1:]
	}
	return strings.Join(path, ".")
}
