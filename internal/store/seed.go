package store

import (
	"context"
	"time"

	"github.com/roach88/worktrack/internal/model"
)

// SeedUsers returns the default admin and two employees with createdAt set
// to now.
func SeedUsers(now time.Time) []model.User {
	createdAt := model.Timestamp(now)
	return []model.User{
		{
			ID:         "1",
			Email:      "admin@company.com",
			Name:       "System Administrator",
			Role:       model.RoleAdmin,
			Department: "IT",
			Position:   "Administrator",
			Phone:      "+1-555-0001",
			CreatedAt:  createdAt,
		},
		{
			ID:         "2",
			Email:      "john.doe@company.com",
			Name:       "John Doe",
			Role:       model.RoleEmployee,
			Department: "Engineering",
			Position:   "Software Developer",
			Phone:      "+1-555-0002",
			CreatedAt:  createdAt,
		},
		{
			ID:         "3",
			Email:      "jane.smith@company.com",
			Name:       "Jane Smith",
			Role:       model.RoleEmployee,
			Department: "Marketing",
			Position:   "Marketing Specialist",
			Phone:      "+1-555-0003",
			CreatedAt:  createdAt,
		},
	}
}

// Initialize seeds the users collection when it is empty and reports whether
// it did. A populated collection is left untouched.
func (s *Store) Initialize(ctx context.Context) (bool, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}

	if err := persist(ctx, s, s.keys.Users, SeedUsers(s.now())); err != nil {
		return false, err
	}
	s.logger.Info("users seeded", "count", 3)
	return true, nil
}
