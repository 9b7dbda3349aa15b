package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/testutil"
)

// failingKV fails every Set after failAfter successful ones.
type failingKV struct {
	*kv.Memory
	failAfter int
	sets      int
}

var errDiskFull = errors.New("quota exceeded")

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.sets >= f.failAfter {
		return errDiskFull
	}
	f.sets++
	return f.Memory.Set(ctx, key, value)
}

func TestList_EmptyWhenNeverInitialized(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	reports, err := s.ListEODReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestList_EmptyStringIsEmptyCollection(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Keys().Users, ""))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestList_JSONNullIsEmptyCollection(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Keys().PlannedTasks, "null"))

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestList_CorruptValueFailsFast(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Keys().EODReports, "{not json"))

	_, err := s.ListEODReports(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "worktrack_eod_reports")
}

func TestSave_CorruptCollectionIsNotOverwritten(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Keys().PlannedTasks, "[{"))

	err := s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 0))
	require.ErrorIs(t, err, ErrCorrupt)

	raw, _, err := backend.Get(ctx, s.Keys().PlannedTasks)
	require.NoError(t, err)
	assert.Equal(t, "[{", raw)
}

func TestSaveEODReport_RoundTripAndReplace(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	r := makeReport("r1", "2", "2025-03-03", 0)
	require.NoError(t, s.SaveEODReport(ctx, r))

	reports, err := s.ListEODReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, r, reports[0])

	r2 := r
	r2.EditCount = 1
	r2.Challenges = "flaky CI"
	r2.WorkingHours = 7.5
	require.NoError(t, s.SaveEODReport(ctx, r2))

	reports, err = s.ListEODReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, r2, reports[0])
}

func TestSave_ReplacesInPlace(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SavePlannedTask(ctx, makeTask(id, "2", "2025-03-02", 0)))
	}

	updated := makeTask("b", "2", "2025-03-02", 2)
	updated.Tasks = []string{"rewritten"}
	require.NoError(t, s.SavePlannedTask(ctx, updated))

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	assert.Equal(t, []string{"rewritten"}, tasks[1].Tasks)
	assert.Equal(t, 2, tasks[1].EditCount)
}

func TestSave_DoesNotEnforceDayUniqueness(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 0)))
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t2", "2", "2025-03-03", 0)))

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSave_SubstrateFailurePropagates(t *testing.T) {
	backend := &failingKV{Memory: kv.NewMemory(), failAfter: 1}
	s := New(backend)
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, model.User{ID: "9", Email: "x@y.z", Role: model.RoleEmployee}))

	err := s.SaveUser(ctx, model.User{ID: "10", Email: "a@b.c", Role: model.RoleEmployee})
	require.ErrorIs(t, err, errDiskFull)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "9", users[0].ID)
}

func TestDeleteUser_Cascades(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Initialize(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 0)))
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t2", "2", "2025-03-04", 1)))
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t3", "3", "2025-03-03", 0)))
	require.NoError(t, s.SaveEODReport(ctx, makeReport("r1", "2", "2025-03-03", 0)))
	require.NoError(t, s.SaveEODReport(ctx, makeReport("r2", "3", "2025-03-03", 2)))

	require.NoError(t, s.DeleteUser(ctx, "2"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, "2", u.ID)
	}

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t3", tasks[0].ID)

	reports, err := s.ListEODReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, makeReport("r2", "3", "2025-03-03", 2), reports[0])
}

func TestDeleteUser_UnknownIDLeavesDataAlone(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Initialize(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 0)))

	require.NoError(t, s.DeleteUser(ctx, "404"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestDeleteSingleRecords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 0)))
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t2", "2", "2025-03-04", 0)))
	require.NoError(t, s.SaveEODReport(ctx, makeReport("r1", "2", "2025-03-03", 0)))

	require.NoError(t, s.DeletePlannedTask(ctx, "t1"))
	require.NoError(t, s.DeleteEODReport(ctx, "r1"))
	require.NoError(t, s.DeleteEODReport(ctx, "missing"))

	tasks, err := s.ListPlannedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t2", tasks[0].ID)

	reports, err := s.ListEODReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestInitialize_SeedsThreeUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	tests := []struct {
		id, email, dept string
		role            model.Role
	}{
		{"1", "admin@company.com", "IT", model.RoleAdmin},
		{"2", "john.doe@company.com", "Engineering", model.RoleEmployee},
		{"3", "jane.smith@company.com", "Marketing", model.RoleEmployee},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.id, users[i].ID)
		assert.Equal(t, tt.email, users[i].Email)
		assert.Equal(t, tt.dept, users[i].Department)
		assert.Equal(t, tt.role, users[i].Role)
		assert.Equal(t, "2025-03-03T09:00:00Z", users[i].CreatedAt)
	}
}

func TestInitialize_NoOpWhenPopulated(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	only := model.User{ID: "42", Email: "solo@company.com", Name: "Solo", Role: model.RoleAdmin}
	require.NoError(t, s.SaveUser(ctx, only))
	before, _, err := backend.Get(ctx, s.Keys().Users)
	require.NoError(t, err)

	seeded, err := s.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	after, _, err := backend.Get(ctx, s.Keys().Users)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInitialize_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Initialize(ctx)
		require.NoError(t, err)
	}
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestSession_SetGetClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	u, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	admin := SeedUsers(testutil.DefaultStart)[0]
	require.NoError(t, s.SetCurrentUser(ctx, admin))

	u, err = s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, admin, *u)

	require.NoError(t, s.ClearCurrentUser(ctx))
	u, err = s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSession_Corrupt(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Keys().CurrentUser, "not-json"))

	_, err := s.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFindHelpers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Initialize(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SavePlannedTask(ctx, makeTask("t1", "2", "2025-03-03", 1)))
	require.NoError(t, s.SaveEODReport(ctx, makeReport("r1", "3", "2025-03-03", 2)))

	u, err := s.FindUserByEmail(ctx, "jane.smith@company.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "3", u.ID)

	u, err = s.FindUserByEmail(ctx, "JANE.SMITH@company.com")
	require.NoError(t, err)
	assert.Nil(t, u, "email lookup is exact")

	u, err = s.FindUser(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsAdmin())

	task, err := s.FindPlannedTask(ctx, "2", "2025-03-03")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "t1", task.ID)

	task, err = s.FindPlannedTask(ctx, "3", "2025-03-03")
	require.NoError(t, err)
	assert.Nil(t, task)

	report, err := s.FindEODReport(ctx, "3", "2025-03-03")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.EditCount)
}

func TestKeyPrefix(t *testing.T) {
	backend := kv.NewMemory()
	s := New(backend, WithKeyPrefix("tenant_a_"))
	ctx := context.Background()

	_, err := s.Initialize(ctx)
	require.NoError(t, err)

	_, ok, err := backend.Get(ctx, "tenant_a_users")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = backend.Get(ctx, "worktrack_users")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_OverSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worktrack.db")
	ctx := context.Background()

	backend, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	s := New(backend)
	_, err = s.Initialize(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveEODReport(ctx, makeReport("r1", "2", "2025-03-03", 0)))
	require.NoError(t, backend.Close())

	reopened, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	s = New(reopened)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
	reports, err := s.ListEODReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.InDelta(t, 8.0, reports[0].WorkingHours, 0.001)
}
