package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/store"
)

func newSeededStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(kv.NewMemory())
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s
}

func TestAuthenticate_AdminSucceeds(t *testing.T) {
	s := newSeededStore(t)
	a := New(s)
	ctx := context.Background()

	user, err := a.Authenticate(ctx, "admin@company.com", "admin123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "1", user.ID)
	assert.True(t, user.IsAdmin())

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, *user, *current)
}

func TestAuthenticate_WrongPasswordLeavesSessionUntouched(t *testing.T) {
	s := newSeededStore(t)
	a := New(s)
	ctx := context.Background()

	// Existing session for Jane.
	jane, err := a.Authenticate(ctx, "jane.smith@company.com", "emp123")
	require.NoError(t, err)
	require.NotNil(t, jane)

	user, err := a.Authenticate(ctx, "admin@company.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "3", current.ID)
}

func TestAuthenticate_WrongPasswordWithNoSession(t *testing.T) {
	s := newSeededStore(t)
	a := New(s)
	ctx := context.Background()

	user, err := a.Authenticate(ctx, "admin@company.com", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestAuthenticate_Employee(t *testing.T) {
	a := New(newSeededStore(t))
	ctx := context.Background()

	user, err := a.Authenticate(ctx, "john.doe@company.com", "emp123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "John Doe", user.Name)

	user, err = a.Authenticate(ctx, "nonexistent@x.com", "emp123")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthenticate_EmailIsExact(t *testing.T) {
	a := New(newSeededStore(t))

	user, err := a.Authenticate(context.Background(), " admin@company.com", "admin123")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthenticate_PolicyAnyIgnoresRole(t *testing.T) {
	a := New(newSeededStore(t), WithPolicy(PolicyAny))
	ctx := context.Background()

	admin, err := a.Authenticate(ctx, "admin@company.com", "emp123")
	require.NoError(t, err)
	require.NotNil(t, admin, "employee password authenticates the admin email")

	john, err := a.Authenticate(ctx, "john.doe@company.com", "admin123")
	require.NoError(t, err)
	require.NotNil(t, john)
}

func TestAuthenticate_PolicyRole(t *testing.T) {
	tests := []struct {
		email    string
		password string
		ok       bool
	}{
		{"admin@company.com", "admin123", true},
		{"admin@company.com", "emp123", false},
		{"john.doe@company.com", "emp123", true},
		{"john.doe@company.com", "admin123", false},
	}

	for _, tt := range tests {
		t.Run(tt.email+"/"+tt.password, func(t *testing.T) {
			a := New(newSeededStore(t), WithPolicy(PolicyRole))
			user, err := a.Authenticate(context.Background(), tt.email, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, user != nil)
		})
	}
}

func TestLogout(t *testing.T) {
	a := New(newSeededStore(t))
	ctx := context.Background()

	_, err := a.Authenticate(ctx, "admin@company.com", "admin123")
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx))

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Logging out twice is harmless.
	require.NoError(t, a.Logout(ctx))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("role")
	require.NoError(t, err)
	assert.Equal(t, PolicyRole, p)

	_, err = ParsePolicy("strict")
	assert.Error(t, err)
}

func TestAuthenticate_StoreErrorPropagates(t *testing.T) {
	backend := kv.NewMemory()
	s := store.New(backend)
	require.NoError(t, backend.Set(context.Background(), s.Keys().Users, "garbage"))

	_, err := New(s).Authenticate(context.Background(), "admin@company.com", "admin123")
	assert.ErrorIs(t, err, store.ErrCorrupt)
}
