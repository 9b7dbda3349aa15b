// Package auth is the worktrack login stub.
//
// There are no per-user credentials. Two fixed passwords exist, one for
// admins and one for employees. Under PolicyAny (the default) either password
// authenticates any stored email, whatever that user's role. PolicyRole
// requires the password of the user's own role.
//
// No hashing, no expiry, no tokens: a successful login writes the user into
// the store's session slot and logout clears it.
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/worktrack/internal/model"
)

// Fixed credential literals.
const (
	AdminPassword    = "admin123"
	EmployeePassword = "emp123"
)

// Policy selects how the password is checked against the looked-up user.
type Policy string

const (
	// PolicyAny accepts either literal for any user.
	PolicyAny Policy = "any"
	// PolicyRole accepts only the literal matching the user's role.
	PolicyRole Policy = "role"
)

// ParsePolicy converts a string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAny, PolicyRole:
		return Policy(s), nil
	}
	return "", fmt.Errorf("invalid password policy %q: must be %q or %q", s, PolicyAny, PolicyRole)
}

// SessionStore is the part of the record store auth reads and writes.
type SessionStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	CurrentUser(ctx context.Context) (*model.User, error)
	SetCurrentUser(ctx context.Context, user model.User) error
	ClearCurrentUser(ctx context.Context) error
}

// Authenticator maps credentials to users and manages the session slot.
type Authenticator struct {
	store  SessionStore
	policy Policy
	logger *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithPolicy sets the password policy. The default is PolicyAny.
func WithPolicy(p Policy) Option {
	return func(a *Authenticator) { a.policy = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// New returns an Authenticator over store.
func New(store SessionStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:  store,
		policy: PolicyAny,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate looks up email exactly and checks password under the
// configured policy. On success the user is written to the session slot and
// returned. On failure it returns nil and a nil error, and the session is not
// touched. A non-nil error means the store failed.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if user == nil || !a.accepts(user, password) {
		a.logger.Info("login rejected", "email", email)
		return nil, nil
	}

	if err := a.store.SetCurrentUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	a.logger.Info("login accepted", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

func (a *Authenticator) accepts(user *model.User, password string) bool {
	if a.policy == PolicyRole {
		if user.IsAdmin() {
			return password == AdminPassword
		}
		return password == EmployeePassword
	}
	return password == AdminPassword || password == EmployeePassword
}

// CurrentUser returns the logged-in user, or nil.
func (a *Authenticator) CurrentUser(ctx context.Context) (*model.User, error) {
	user, err := a.store.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// Logout clears the session slot.
func (a *Authenticator) Logout(ctx context.Context) error {
	if err := a.store.ClearCurrentUser(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
