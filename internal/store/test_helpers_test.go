package store

import (
	"testing"

	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/testutil"
)

// newTestStore creates a store over a fresh in-memory backend with a
// deterministic clock.
func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	backend := kv.NewMemory()
	clock := testutil.NewDeterministicClock()
	s := New(backend, WithClock(clock.Now))
	t.Cleanup(func() { backend.Close() })
	return s, backend
}

// makeTask creates a planned task with minimal required fields.
func makeTask(id, userID, date string, editCount int) model.PlannedTask {
	return model.PlannedTask{
		ID:        id,
		UserID:    userID,
		Date:      date,
		Tasks:     []string{"write tests"},
		CreatedAt: "2025-03-03T09:00:00Z",
		UpdatedAt: "2025-03-03T09:00:00Z",
		EditCount: editCount,
	}
}

// makeReport creates an EOD report with minimal required fields.
func makeReport(id, userID, date string, editCount int) model.EODReport {
	return model.EODReport{
		ID:             id,
		UserID:         userID,
		Date:           date,
		CompletedTasks: []string{"wrote tests"},
		Challenges:     "",
		NextDayPlan:    []string{"review"},
		WorkingHours:   8,
		CreatedAt:      "2025-03-03T17:00:00Z",
		UpdatedAt:      "2025-03-03T17:00:00Z",
		EditCount:      editCount,
	}
}
