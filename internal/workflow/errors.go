package workflow

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes workflow errors.
type ErrorCode string

const (
	// ErrCodeEditCapReached indicates the day's record has used all its edits.
	ErrCodeEditCapReached ErrorCode = "EDIT_CAP_REACHED"

	// ErrCodeNoTasks indicates a submission with no non-blank task lines.
	ErrCodeNoTasks ErrorCode = "NO_TASKS"

	// ErrCodeInvalidHours indicates working hours outside (0, 24].
	ErrCodeInvalidHours ErrorCode = "INVALID_HOURS"

	// ErrCodeDuplicateEmail indicates another user already has the email.
	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"

	// ErrCodeNotFound indicates the referenced user does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeForbidden indicates the acting user lacks the admin role.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// ErrCodeInvalidRecord indicates the assembled record failed schema validation.
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error is a user-facing rejection. Nothing has been persisted when a
// workflow returns one.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a plain sentence suitable for showing to the user.
	Message string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsEditCapError returns true if err is an edit cap rejection.
// Uses errors.As to handle wrapped errors.
func IsEditCapError(err error) bool {
	return hasCode(err, ErrCodeEditCapReached)
}

// IsNotFound returns true if err reports a missing user.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsForbidden returns true if err reports a missing admin role.
func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

// IsValidationError returns true for any rejection of user input, as opposed
// to a storage failure.
func IsValidationError(err error) bool {
	var we *Error
	return errors.As(err, &we)
}

func hasCode(err error, code ErrorCode) bool {
	var we *Error
	if errors.As(err, &we) {
		return we.Code == code
	}
	return false
}

func newEditCapError(kind string, editCount int) *Error {
	return &Error{
		Code:    ErrCodeEditCapReached,
		Message: fmt.Sprintf("edit cap reached: %s already edited %d times today", kind, editCount),
		Details: map[string]string{
			"edit_count": fmt.Sprintf("%d", editCount),
		},
	}
}

func newNoTasksError(message string) *Error {
	return &Error{Code: ErrCodeNoTasks, Message: message}
}

func newInvalidDateError(date string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidRecord,
		Message: fmt.Sprintf("invalid date %q", date),
		Err:     err,
	}
}

func newInvalidHoursError(hours float64) *Error {
	return &Error{
		Code:    ErrCodeInvalidHours,
		Message: "working hours must be greater than 0 and at most 24",
		Details: map[string]string{"hours": fmt.Sprintf("%g", hours)},
	}
}

func newInvalidRecordError(err error) *Error {
	return &Error{Code: ErrCodeInvalidRecord, Message: "record failed validation", Err: err}
}
