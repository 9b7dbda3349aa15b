package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/worktrack/internal/auth"
	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/schema"
	"github.com/roach88/worktrack/internal/store"
	"github.com/roach88/worktrack/internal/testutil"
	"github.com/roach88/worktrack/internal/workflow"
)

// Outcomes that do not come from the workflow package.
const (
	CaseAuthFailed  = "AUTH_FAILED"
	CaseNotSignedIn = "NOT_SIGNED_IN"
)

// Harness executes scenario steps against the real services.
type Harness struct {
	store    *store.Store
	auth     *auth.Authenticator
	workflow *workflow.Service
	clock    *testutil.DeterministicClock
	seq      int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs over fresh in-memory storage seeded with the default
// users, a deterministic clock and sequential record ids ("rec-1", ...), so
// the trace is reproducible. A returned error means the scenario could not
// be executed at all (bad args, a failing setup step). Failed expectations
// and assertions are reported in the Result instead.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend := kv.NewMemory()
	defer backend.Close()

	clock := testutil.NewDeterministicClock()
	if scenario.Today != "" {
		if _, err := model.ParseDate(scenario.Today); err != nil {
			return nil, fmt.Errorf("today: %w", err)
		}
		clock.SetDay(scenario.Today)
	}

	policy := auth.PolicyAny
	if scenario.Policy != "" {
		p, err := auth.ParsePolicy(scenario.Policy)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load record schema: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	st := store.New(backend, store.WithClock(clock.Now), store.WithLogger(logger))
	if _, err := st.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	ids := testutil.NewSequentialIDs("rec")
	h := &Harness{
		store: st,
		auth:  auth.New(st, auth.WithPolicy(policy), auth.WithLogger(logger)),
		workflow: workflow.New(st, validator,
			workflow.WithClock(clock.Now),
			workflow.WithIDGenerator(ids.Next),
			workflow.WithLogger(logger),
		),
		clock: clock,
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		outcome, _, err := h.step(ctx, step.Action, step.Args, result)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Action, err)
		}
		if outcome != CaseSuccess {
			return nil, fmt.Errorf("setup[%d] %s: failed with %s", i, step.Action, outcome)
		}
	}

	for i, step := range scenario.Flow {
		outcome, got, err := h.step(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Invoke, err)
		}
		checkExpect(result, i, step, outcome, got)
	}

	for _, msg := range EvaluateAssertions(ctx, result, scenario.Assertions, st) {
		result.AddError(msg)
	}
	return result, nil
}

// checkExpect compares a step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(result *Result, index int, step FlowStep, outcome string, got map[string]any) {
	want := step.Expect
	if want == nil {
		if outcome != CaseSuccess {
			result.AddError(fmt.Sprintf("flow[%d] %s: unexpected %s", index, step.Invoke, outcome))
		}
		return
	}
	if outcome != want.Case {
		result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q", index, step.Invoke, want.Case, outcome))
		return
	}
	for key, expected := range want.Result {
		actual, ok := got[key]
		if !ok {
			result.AddError(fmt.Sprintf("flow[%d] %s: result field %q missing", index, step.Invoke, key))
			continue
		}
		if !valuesEqual(expected, actual) {
			result.AddError(fmt.Sprintf("flow[%d] %s: result field %q = %v, expected %v",
				index, step.Invoke, key, actual, expected))
		}
	}
}

// step traces and executes one action.
func (h *Harness) step(ctx context.Context, action string, args map[string]any, result *Result) (string, map[string]any, error) {
	result.AddInvocationTrace(action, args, h.next())

	got, err := h.dispatch(ctx, action, args)
	outcome := CaseSuccess
	var we *workflow.Error
	var rejected rejection
	switch {
	case errors.As(err, &we):
		outcome, got = string(we.Code), nil
	case errors.As(err, &rejected):
		outcome, got = string(rejected), nil
	case err != nil:
		return "", nil, err
	}

	result.AddCompletionTrace(outcome, got, h.next())
	return outcome, got, nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// rejection is an expected failure outside the workflow package.
type rejection string

func (r rejection) Error() string { return string(r) }

func (h *Harness) dispatch(ctx context.Context, action string, args map[string]any) (map[string]any, error) {
	a := argReader(args)

	switch action {
	case ActionLogin:
		email, password := a.str("email"), a.str("password")
		if a.err != nil {
			return nil, a.err
		}
		user, err := h.auth.Authenticate(ctx, email, password)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, rejection(CaseAuthFailed)
		}
		return map[string]any{"user_id": user.ID, "role": string(user.Role)}, nil

	case ActionLogout:
		return nil, h.auth.Logout(ctx)

	case ActionSetDay:
		date := a.str("date")
		if a.err != nil {
			return nil, a.err
		}
		if _, err := model.ParseDate(date); err != nil {
			return nil, err
		}
		h.clock.SetDay(date)
		return map[string]any{"today": date}, nil
	}

	user, err := h.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, rejection(CaseNotSignedIn)
	}

	switch action {
	case ActionSubmitPlan:
		tasks := a.strs("tasks")
		if a.err != nil {
			return nil, a.err
		}
		res, err := h.workflow.SubmitPlan(ctx, *user, h.date(a), tasks)
		if err != nil {
			return nil, err
		}
		return submission(res.Task.ID, res.Task.EditCount, res.Remaining, res.Created), nil

	case ActionSubmitEOD:
		in := workflow.EODInput{
			CompletedTasks: a.strs("completed_tasks"),
			Challenges:     a.str("challenges"),
			NextDayPlan:    a.strs("next_day_plan"),
			WorkingHours:   a.float("hours"),
		}
		if a.err != nil {
			return nil, a.err
		}
		res, err := h.workflow.SubmitEOD(ctx, *user, h.date(a), in)
		if err != nil {
			return nil, err
		}
		return submission(res.Report.ID, res.Report.EditCount, res.Remaining, res.Created), nil

	case ActionCreateUser:
		in := a.userInput(workflow.UserInput{Role: model.RoleEmployee})
		if a.err != nil {
			return nil, a.err
		}
		created, err := h.workflow.CreateUser(ctx, *user, in)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": created.ID, "email": created.Email}, nil

	case ActionUpdateUser:
		id := a.str("id")
		if a.err != nil {
			return nil, a.err
		}
		var base workflow.UserInput
		existing, err := h.store.FindUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			base = workflow.UserInput{
				Email:      existing.Email,
				Name:       existing.Name,
				Role:       existing.Role,
				Department: existing.Department,
				Position:   existing.Position,
				Phone:      existing.Phone,
			}
		}
		in := a.userInput(base)
		if a.err != nil {
			return nil, a.err
		}
		updated, err := h.workflow.UpdateUser(ctx, *user, id, in)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": updated.ID, "email": updated.Email}, nil

	case ActionDeleteUser:
		id := a.str("id")
		if a.err != nil {
			return nil, a.err
		}
		if err := h.workflow.DeleteUser(ctx, *user, id); err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil
	}

	return nil, fmt.Errorf("unknown action %q", action)
}

// date is the step's date arg, or today by the scenario clock.
func (h *Harness) date(a *argSet) string {
	if d := a.str("date"); d != "" {
		return d
	}
	return h.workflow.Today()
}

func submission(id string, editCount, remaining int, created bool) map[string]any {
	return map[string]any{
		"id":         id,
		"edit_count": editCount,
		"remaining":  remaining,
		"created":    created,
	}
}
