package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/worktrack/internal/governance"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/schema"
	"github.com/roach88/worktrack/internal/store"
)

// Service runs submissions and user administration against a store.
type Service struct {
	store     *store.Store
	governor  *governance.Governor
	validator *schema.Validator
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the record id source. The default is random UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New returns a Service.
func New(st *store.Store, validator *schema.Validator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		governor:  governance.New(st),
		validator: validator,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Governor exposes the edit-cap queries used by the service.
func (s *Service) Governor() *governance.Governor {
	return s.governor
}

// Today returns the current calendar day from the service clock.
func (s *Service) Today() string {
	return model.DateOf(s.now())
}

// PlanResult is the outcome of a plan submission.
type PlanResult struct {
	Task      model.PlannedTask `json:"task"`
	Created   bool              `json:"created"`
	Remaining int               `json:"remaining"`
}

// SubmitPlan saves the user's planned tasks for date.
func (s *Service) SubmitPlan(ctx context.Context, user model.User, date string, tasks []string) (*PlanResult, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, newInvalidDateError(date, err)
	}
	ok, err := s.governor.CanEdit(ctx, user.ID, date, model.RecordPlanned)
	if err != nil {
		return nil, fmt.Errorf("submit plan: %w", err)
	}
	if !ok {
		return nil, newEditCapError("plan", governance.MaxEdits)
	}
	existing, err := s.store.FindPlannedTask(ctx, user.ID, date)
	if err != nil {
		return nil, fmt.Errorf("submit plan: %w", err)
	}

	cleaned := cleanLines(tasks)
	if len(cleaned) == 0 {
		return nil, newNoTasksError("at least one task required")
	}

	ts := model.Timestamp(s.now())
	task := model.PlannedTask{
		ID:        s.newID(),
		UserID:    user.ID,
		Date:      date,
		Tasks:     cleaned,
		CreatedAt: ts,
		UpdatedAt: ts,
		EditCount: 0,
	}
	if existing != nil {
		task.ID = existing.ID
		task.CreatedAt = existing.CreatedAt
		task.EditCount = existing.EditCount + 1
	}

	if err := s.validator.ValidatePlannedTask(task); err != nil {
		return nil, newInvalidRecordError(err)
	}
	if err := s.store.SavePlannedTask(ctx, task); err != nil {
		return nil, fmt.Errorf("submit plan: %w", err)
	}

	s.logger.Info("plan submitted",
		"user_id", user.ID,
		"date", date,
		"tasks", len(cleaned),
		"edit_count", task.EditCount,
	)
	return &PlanResult{
		Task:      task,
		Created:   existing == nil,
		Remaining: max(0, governance.MaxEdits-task.EditCount),
	}, nil
}

// EODInput is the editable content of an end-of-day report.
type EODInput struct {
	CompletedTasks []string
	Challenges     string
	NextDayPlan    []string
	WorkingHours   float64
}

// EODResult is the outcome of an EOD submission.
type EODResult struct {
	Report    model.EODReport `json:"report"`
	Created   bool            `json:"created"`
	Remaining int             `json:"remaining"`
}

// SubmitEOD saves the user's end-of-day report for date.
func (s *Service) SubmitEOD(ctx context.Context, user model.User, date string, in EODInput) (*EODResult, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, newInvalidDateError(date, err)
	}
	ok, err := s.governor.CanEdit(ctx, user.ID, date, model.RecordEOD)
	if err != nil {
		return nil, fmt.Errorf("submit eod: %w", err)
	}
	if !ok {
		return nil, newEditCapError("eod report", governance.MaxEdits)
	}
	existing, err := s.store.FindEODReport(ctx, user.ID, date)
	if err != nil {
		return nil, fmt.Errorf("submit eod: %w", err)
	}

	completed := cleanLines(in.CompletedTasks)
	if len(completed) == 0 {
		return nil, newNoTasksError("at least one completed task required")
	}
	if !(in.WorkingHours > 0 && in.WorkingHours <= 24) {
		return nil, newInvalidHoursError(in.WorkingHours)
	}

	ts := model.Timestamp(s.now())
	report := model.EODReport{
		ID:             s.newID(),
		UserID:         user.ID,
		Date:           date,
		CompletedTasks: completed,
		Challenges:     cleanText(in.Challenges),
		NextDayPlan:    cleanLines(in.NextDayPlan),
		WorkingHours:   in.WorkingHours,
		CreatedAt:      ts,
		UpdatedAt:      ts,
		EditCount:      0,
	}
	if existing != nil {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		report.EditCount = existing.EditCount + 1
	}

	if err := s.validator.ValidateEODReport(report); err != nil {
		return nil, newInvalidRecordError(err)
	}
	if err := s.store.SaveEODReport(ctx, report); err != nil {
		return nil, fmt.Errorf("submit eod: %w", err)
	}

	s.logger.Info("eod report submitted",
		"user_id", user.ID,
		"date", date,
		"hours", in.WorkingHours,
		"edit_count", report.EditCount,
	)
	return &EODResult{
		Report:    report,
		Created:   existing == nil,
		Remaining: max(0, governance.MaxEdits-report.EditCount),
	}, nil
}

// cleanLines NFC-normalises and trims each line and drops blank ones.
// The result is never nil.
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = cleanText(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
