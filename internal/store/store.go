package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/worktrack/internal/kv"
)

// ErrCorrupt is returned when a stored collection cannot be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "worktrack_"

// Keys names the four slots of the store.
type Keys struct {
	Users        string
	PlannedTasks string
	EODReports   string
	CurrentUser  string
}

// KeysWithPrefix returns the slot names under prefix.
func KeysWithPrefix(prefix string) Keys {
	return Keys{
		Users:        prefix + "users",
		PlannedTasks: prefix + "planned_tasks",
		EODReports:   prefix + "eod_reports",
		CurrentUser:  prefix + "current_user",
	}
}

// Store reads and writes worktrack records over a kv.Store.
type Store struct {
	kv     kv.Store
	keys   Keys
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.keys = KeysWithPrefix(prefix) }
}

// WithClock sets the time source used for seed timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over backend.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		keys:   KeysWithPrefix(DefaultKeyPrefix),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the slot names in use.
func (s *Store) Keys() Keys {
	return s.keys
}

// record is implemented by every collection element.
type record interface {
	RecordID() string
}

// load reads a whole collection. Absent and empty values are empty collections.
func load[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", key, ErrCorrupt, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// persist writes a whole collection. Encoding happens before the write, so a
// failed encode leaves the stored value untouched.
func persist[T any](ctx context.Context, s *Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// upsert replaces the element with item's id in place, or appends item.
func upsert[T record](items []T, item T) ([]T, bool) {
	for i := range items {
		if items[i].RecordID() == item.RecordID() {
			items[i] = item
			return items, true
		}
	}
	return append(items, item), false
}

// removeWhere drops every element matching drop and reports how many went.
func removeWhere[T any](items []T, drop func(T) bool) ([]T, int) {
	kept := items[:0]
	removed := 0
	for _, item := range items {
		if drop(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}

// save is the shared load, find-by-id-or-append, persist sequence.
func save[T record](ctx context.Context, s *Store, key string, item T) error {
	items, err := load[T](ctx, s, key)
	if err != nil {
		return err
	}
	items, replaced := upsert(items, item)
	if err := persist(ctx, s, key, items); err != nil {
		return err
	}
	s.logger.Debug("record saved", "collection", key, "id", item.RecordID(), "replaced", replaced)
	return nil
}

// deleteByID removes a single element by id. Missing ids are not an error.
func deleteByID[T record](ctx context.Context, s *Store, key, id string) error {
	items, err := load[T](ctx, s, key)
	if err != nil {
		return err
	}
	items, removed := removeWhere(items, func(item T) bool { return item.RecordID() == id })
	if err := persist(ctx, s, key, items); err != nil {
		return err
	}
	s.logger.Debug("record deleted", "collection", key, "id", id, "removed", removed)
	return nil
}
