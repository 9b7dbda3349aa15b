package model

import "fmt"

// Role is a user's access level.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: must be %q or %q", s, RoleEmployee, RoleAdmin)
	}
	return r, nil
}

// RecordType selects between the two per-day record kinds.
type RecordType string

const (
	RecordPlanned RecordType = "planned"
	RecordEOD     RecordType = "eod"
)

// User is an identity record. Email is the login key.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// RecordID returns the user's id.
func (u User) RecordID() string { return u.ID }

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// PlannedTask is a user's list of intended tasks for one day.
// At most one exists per (UserID, Date).
type PlannedTask struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Date      string   `json:"date"`
	Tasks     []string `json:"tasks"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	EditCount int      `json:"editCount"`
}

// RecordID returns the task's id.
func (t PlannedTask) RecordID() string { return t.ID }

// EODReport is a user's end-of-day report for one day.
// At most one exists per (UserID, Date).
type EODReport struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	Date           string   `json:"date"`
	CompletedTasks []string `json:"completedTasks"`
	Challenges     string   `json:"challenges"`
	NextDayPlan    []string `json:"nextDayPlan"`
	WorkingHours   float64  `json:"workingHours"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	EditCount      int      `json:"editCount"`
}

// RecordID returns the report's id.
func (r EODReport) RecordID() string { return r.ID }
