package store

import (
	"context"

	"github.com/roach88/worktrack/internal/model"
)

// ListUsers returns every user.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return load[model.User](ctx, s, s.keys.Users)
}

// ListPlannedTasks returns every planned task.
func (s *Store) ListPlannedTasks(ctx context.Context) ([]model.PlannedTask, error) {
	return load[model.PlannedTask](ctx, s, s.keys.PlannedTasks)
}

// ListEODReports returns every end-of-day report.
func (s *Store) ListEODReports(ctx context.Context) ([]model.EODReport, error) {
	return load[model.EODReport](ctx, s, s.keys.EODReports)
}

// SaveUser replaces the user with the same id or appends it.
func (s *Store) SaveUser(ctx context.Context, user model.User) error {
	return save(ctx, s, s.keys.Users, user)
}

// SavePlannedTask replaces the task with the same id or appends it.
// It does not check (userId, date) uniqueness.
func (s *Store) SavePlannedTask(ctx context.Context, task model.PlannedTask) error {
	return save(ctx, s, s.keys.PlannedTasks, task)
}

// SaveEODReport replaces the report with the same id or appends it.
// It does not check (userId, date) uniqueness.
func (s *Store) SaveEODReport(ctx context.Context, report model.EODReport) error {
	return save(ctx, s, s.keys.EODReports, report)
}

// DeleteUser removes the user and every planned task and report it owns.
//
// The three collections are rewritten one after another; a substrate failure
// part way leaves the earlier rewrites in place.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	users, _ = removeWhere(users, func(u model.User) bool { return u.ID == id })
	if err := persist(ctx, s, s.keys.Users, users); err != nil {
		return err
	}

	tasks, err := s.ListPlannedTasks(ctx)
	if err != nil {
		return err
	}
	tasks, tasksRemoved := removeWhere(tasks, func(t model.PlannedTask) bool { return t.UserID == id })
	if err := persist(ctx, s, s.keys.PlannedTasks, tasks); err != nil {
		return err
	}

	reports, err := s.ListEODReports(ctx)
	if err != nil {
		return err
	}
	reports, reportsRemoved := removeWhere(reports, func(r model.EODReport) bool { return r.UserID == id })
	if err := persist(ctx, s, s.keys.EODReports, reports); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		"user_id", id,
		"planned_tasks_removed", tasksRemoved,
		"eod_reports_removed", reportsRemoved,
	)
	return nil
}

// DeletePlannedTask removes a single planned task by id.
func (s *Store) DeletePlannedTask(ctx context.Context, id string) error {
	return deleteByID[model.PlannedTask](ctx, s, s.keys.PlannedTasks, id)
}

// DeleteEODReport removes a single report by id.
func (s *Store) DeleteEODReport(ctx context.Context, id string) error {
	return deleteByID[model.EODReport](ctx, s, s.keys.EODReports, id)
}

// FindUser returns the user with id, or nil.
func (s *Store) FindUser(ctx context.Context, id string) (*model.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindUserByEmail returns the user whose email matches exactly, or nil.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindPlannedTask returns the first planned task for (userID, date), or nil.
func (s *Store) FindPlannedTask(ctx context.Context, userID, date string) (*model.PlannedTask, error) {
	tasks, err := s.ListPlannedTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].UserID == userID && tasks[i].Date == date {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// FindEODReport returns the first report for (userID, date), or nil.
func (s *Store) FindEODReport(ctx context.Context, userID, date string) (*model.EODReport, error) {
	reports, err := s.ListEODReports(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		if reports[i].UserID == userID && reports[i].Date == date {
			return &reports[i], nil
		}
	}
	return nil, nil
}
