package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/worktrack/internal/model"
)

// CurrentUser returns the user held in the session slot, or nil.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	raw, ok, err := s.kv.Get(ctx, s.keys.CurrentUser)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.keys.CurrentUser, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", s.keys.CurrentUser, ErrCorrupt, err)
	}
	return &user, nil
}

// SetCurrentUser writes user into the session slot.
func (s *Store) SetCurrentUser(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("persist %s: %w", s.keys.CurrentUser, err)
	}
	if err := s.kv.Set(ctx, s.keys.CurrentUser, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", s.keys.CurrentUser, err)
	}
	return nil
}

// ClearCurrentUser empties the session slot.
func (s *Store) ClearCurrentUser(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.keys.CurrentUser); err != nil {
		return fmt.Errorf("clear %s: %w", s.keys.CurrentUser, err)
	}
	return nil
}
