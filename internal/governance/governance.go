// Package governance enforces the daily edit cap on planned tasks and
// end-of-day reports.
//
// The cap is cooperative. A day's record is created with EditCount 0 and
// every resubmission increments it by one before saving. Governance only
// reads the stored count; it never changes it and cannot stop a caller that
// skips the check.
package governance

import (
	"context"
	"fmt"

	"github.com/roach88/worktrack/internal/model"
)

// MaxEdits is the number of resubmissions allowed per record per day.
const MaxEdits = 3

// Records is the read side of the record store that governance needs.
type Records interface {
	FindPlannedTask(ctx context.Context, userID, date string) (*model.PlannedTask, error)
	FindEODReport(ctx context.Context, userID, date string) (*model.EODReport, error)
}

// Governor answers edit-cap questions against a record store.
type Governor struct {
	records Records
}

// New returns a Governor reading from records.
func New(records Records) *Governor {
	return &Governor{records: records}
}

// EditCount returns the stored edit count of the (userID, date) record of the
// given type, or 0 when no such record exists.
func (g *Governor) EditCount(ctx context.Context, userID, date string, typ model.RecordType) (int, error) {
	switch typ {
	case model.RecordPlanned:
		task, err := g.records.FindPlannedTask(ctx, userID, date)
		if err != nil {
			return 0, fmt.Errorf("edit count: %w", err)
		}
		if task == nil {
			return 0, nil
		}
		return task.EditCount, nil
	case model.RecordEOD:
		report, err := g.records.FindEODReport(ctx, userID, date)
		if err != nil {
			return 0, fmt.Errorf("edit count: %w", err)
		}
		if report == nil {
			return 0, nil
		}
		return report.EditCount, nil
	default:
		return 0, fmt.Errorf("edit count: unknown record type %q", typ)
	}
}

// CanEdit reports whether EditCount is below MaxEdits.
func (g *Governor) CanEdit(ctx context.Context, userID, date string, typ model.RecordType) (bool, error) {
	n, err := g.EditCount(ctx, userID, date, typ)
	if err != nil {
		return false, err
	}
	return n < MaxEdits, nil
}

// Remaining returns how many more edits are allowed, never below zero.
func (g *Governor) Remaining(ctx context.Context, userID, date string, typ model.RecordType) (int, error) {
	n, err := g.EditCount(ctx, userID, date, typ)
	if err != nil {
		return 0, err
	}
	return max(0, MaxEdits-n), nil
}
