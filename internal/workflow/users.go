package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/worktrack/internal/model"
)

// UserInput carries the editable fields of a user.
type UserInput struct {
	Email      string
	Name       string
	Role       model.Role
	Department string
	Position   string
	Phone      string
}

func (in UserInput) normalized() UserInput {
	return UserInput{
		Email:      strings.ToLower(cleanText(in.Email)),
		Name:       cleanText(in.Name),
		Role:       in.Role,
		Department: cleanText(in.Department),
		Position:   cleanText(in.Position),
		Phone:      cleanText(in.Phone),
	}
}

// CreateUser adds a user with a generated id. Only admins may call it.
func (s *Service) CreateUser(ctx context.Context, actor model.User, in UserInput) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in = in.normalized()
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	user := model.User{
		ID:         s.newID(),
		Email:      in.Email,
		Name:       in.Name,
		Role:       in.Role,
		Department: in.Department,
		Position:   in.Position,
		Phone:      in.Phone,
		CreatedAt:  model.Timestamp(s.now()),
	}
	if err := s.validator.ValidateUser(user); err != nil {
		return nil, newInvalidRecordError(err)
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role, "actor", actor.ID)
	return &user, nil
}

// UpdateUser replaces the editable fields of an existing user, keeping its id
// and createdAt. Only admins may call it.
func (s *Service) UpdateUser(ctx context.Context, actor model.User, id string, in UserInput) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.store.FindUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if existing == nil {
		return nil, newNotFoundError(id)
	}
	in = in.normalized()
	if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
		return nil, err
	}

	user := *existing
	user.Email = in.Email
	user.Name = in.Name
	user.Role = in.Role
	user.Department = in.Department
	user.Position = in.Position
	user.Phone = in.Phone

	if err := s.validator.ValidateUser(user); err != nil {
		return nil, newInvalidRecordError(err)
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", user.ID, "actor", actor.ID)
	return &user, nil
}

// DeleteUser removes a user together with their planned tasks and reports.
// Only admins may call it, and an admin cannot delete their own account.
func (s *Service) DeleteUser(ctx context.Context, actor model.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return &Error{Code: ErrCodeForbidden, Message: "cannot delete the signed-in user"}
	}
	existing, err := s.store.FindUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if existing == nil {
		return newNotFoundError(id)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	other, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if other != nil && other.ID != selfID {
		return &Error{
			Code:    ErrCodeDuplicateEmail,
			Message: "a user with this email already exists",
			Details: map[string]string{"email": email},
		}
	}
	return nil
}

func requireAdmin(actor model.User) error {
	if !actor.IsAdmin() {
		return &Error{
			Code:    ErrCodeForbidden,
			Message: "admin role required",
			Details: map[string]string{"user_id": actor.ID},
		}
	}
	return nil
}

func newNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "user not found",
		Details: map[string]string{"user_id": id},
	}
}
