package governance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/store"
)

type brokenRecords struct{}

var errBroken = errors.New("storage unavailable")

func (brokenRecords) FindPlannedTask(context.Context, string, string) (*model.PlannedTask, error) {
	return nil, errBroken
}

func (brokenRecords) FindEODReport(context.Context, string, string) (*model.EODReport, error) {
	return nil, errBroken
}

func newGovernor(t *testing.T) (*Governor, *store.Store) {
	t.Helper()
	s := store.New(kv.NewMemory())
	return New(s), s
}

func TestEditCount_ZeroWhenAbsent(t *testing.T) {
	g, _ := newGovernor(t)
	ctx := context.Background()

	for _, typ := range []model.RecordType{model.RecordPlanned, model.RecordEOD} {
		n, err := g.EditCount(ctx, "2", "2025-03-03", typ)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		ok, err := g.CanEdit(ctx, "2", "2025-03-03", typ)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCanEdit_MatchesCap(t *testing.T) {
	tests := []struct {
		editCount int
		canEdit   bool
		remaining int
	}{
		{0, true, 3},
		{1, true, 2},
		{2, true, 1},
		{3, false, 0},
		{4, false, 0},
	}

	for _, tt := range tests {
		g, s := newGovernor(t)
		ctx := context.Background()

		require.NoError(t, s.SavePlannedTask(ctx, model.PlannedTask{
			ID: "t", UserID: "2", Date: "2025-03-03", Tasks: []string{"x"}, EditCount: tt.editCount,
		}))
		require.NoError(t, s.SaveEODReport(ctx, model.EODReport{
			ID: "r", UserID: "2", Date: "2025-03-03", CompletedTasks: []string{"x"}, WorkingHours: 8, EditCount: tt.editCount,
		}))

		for _, typ := range []model.RecordType{model.RecordPlanned, model.RecordEOD} {
			n, err := g.EditCount(ctx, "2", "2025-03-03", typ)
			require.NoError(t, err)
			assert.Equal(t, tt.editCount, n)

			ok, err := g.CanEdit(ctx, "2", "2025-03-03", typ)
			require.NoError(t, err)
			assert.Equal(t, tt.canEdit, ok, "editCount=%d type=%s", tt.editCount, typ)
			assert.Equal(t, n < MaxEdits, ok)

			left, err := g.Remaining(ctx, "2", "2025-03-03", typ)
			require.NoError(t, err)
			assert.Equal(t, tt.remaining, left)
		}
	}
}

func TestEditCount_ScopedByUserDateAndType(t *testing.T) {
	g, s := newGovernor(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlannedTask(ctx, model.PlannedTask{
		ID: "t", UserID: "2", Date: "2025-03-03", Tasks: []string{"x"}, EditCount: 3,
	}))

	n, err := g.EditCount(ctx, "2", "2025-03-03", model.RecordEOD)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "eod count is independent of planned")

	n, err = g.EditCount(ctx, "3", "2025-03-03", model.RecordPlanned)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "other users are independent")

	n, err = g.EditCount(ctx, "2", "2025-03-04", model.RecordPlanned)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "other days are independent")
}

func TestEditCount_UnknownType(t *testing.T) {
	g, _ := newGovernor(t)
	_, err := g.EditCount(context.Background(), "2", "2025-03-03", model.RecordType("weekly"))
	assert.ErrorContains(t, err, "unknown record type")
}

func TestEditCount_PropagatesStoreErrors(t *testing.T) {
	g := New(brokenRecords{})

	_, err := g.EditCount(context.Background(), "2", "2025-03-03", model.RecordPlanned)
	assert.ErrorIs(t, err, errBroken)

	ok, err := g.CanEdit(context.Background(), "2", "2025-03-03", model.RecordEOD)
	assert.ErrorIs(t, err, errBroken)
	assert.False(t, ok)
}
