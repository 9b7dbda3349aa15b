package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/worktrack/internal/model"
)

// Summary is an employee's view of their last seven days.
type Summary struct {
	UserID          string             `json:"userId"`
	Today           string             `json:"today"`
	TodayPlan       *model.PlannedTask `json:"todayPlan,omitempty"`
	TodayEOD        *model.EODReport   `json:"todayEod,omitempty"`
	WeekReports     int                `json:"weekReports"`
	CompletionRate  float64            `json:"completionRate"`
	AvgWorkingHours float64            `json:"avgWorkingHours"`
	Recent          []model.EODReport  `json:"recent"`
}

// EmployeeSummary covers the EOD reports dated within the seven days ending
// at today, and today's plan and report.
func (s *Service) EmployeeSummary(ctx context.Context, userID, today string) (*Summary, error) {
	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	from, err := model.AddDays(today, -(WeekDays - 1))
	if err != nil {
		return nil, err
	}

	out := &Summary{
		UserID:    userID,
		Today:     today,
		TodayPlan: sn.planFor(userID, today),
		TodayEOD:  sn.eodFor(userID, today),
		Recent:    []model.EODReport{},
	}

	var completed int
	var hours float64
	for _, r := range sn.reports {
		if r.UserID != userID || r.Date < from || r.Date > today {
			continue
		}
		out.Recent = append(out.Recent, r)
		hours += r.WorkingHours
		if len(r.CompletedTasks) > 0 {
			completed++
		}
	}
	sort.SliceStable(out.Recent, func(i, j int) bool {
		return out.Recent[i].Date > out.Recent[j].Date
	})

	out.WeekReports = len(out.Recent)
	if out.WeekReports > 0 {
		out.CompletionRate = rate(completed, out.WeekReports)
		out.AvgWorkingHours = hours / float64(out.WeekReports)
	}
	return out, nil
}

// Filter selects history entries. Zero values match everything.
type Filter struct {
	// UserID limits the history to one user. Empty means every employee.
	UserID string

	// From and To bound the date range inclusively.
	From string
	To   string

	// Search matches case-insensitively against task text, challenges,
	// the date and, for multi-user history, the user's name, email and
	// department.
	Search string

	Type Type
}

// Type filters history entries by which records they carry.
type Type string

const (
	TypeAll      Type = "all"
	TypePlanned  Type = "planned"
	TypeEOD      Type = "eod"
	TypeComplete Type = "complete"
)

// ParseType converts s to a Type. Empty means TypeAll.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeAll, nil
	case TypeAll, TypePlanned, TypeEOD, TypeComplete:
		return t, nil
	}
	return "", fmt.Errorf("invalid history type %q: must be all, planned, eod or complete", s)
}

// Entry merges one user's plan and EOD report for a day.
type Entry struct {
	Date    string             `json:"date"`
	User    model.User         `json:"user"`
	Plan    *model.PlannedTask `json:"plan,omitempty"`
	EOD     *model.EODReport   `json:"eod,omitempty"`
	Updated string             `json:"updatedAt"`
}

// HasPlan reports whether the entry carries a planned task.
func (e Entry) HasPlan() bool { return e.Plan != nil }

// HasEOD reports whether the entry carries an EOD report.
func (e Entry) HasEOD() bool { return e.EOD != nil }

// Complete reports whether both records exist for the day.
func (e Entry) Complete() bool { return e.HasPlan() && e.HasEOD() }

// HistoryTotals counts the entries of a history by kind.
type HistoryTotals struct {
	Days        int `json:"days"`
	Complete    int `json:"complete"`
	PlannedOnly int `json:"plannedOnly"`
	EODOnly     int `json:"eodOnly"`
}

// Totals counts entries by kind.
func Totals(entries []Entry) HistoryTotals {
	t := HistoryTotals{Days: len(entries)}
	for _, e := range entries {
		switch {
		case e.Complete():
			t.Complete++
		case e.HasPlan():
			t.PlannedOnly++
		case e.HasEOD():
			t.EODOnly++
		}
	}
	return t
}

type entryKey struct {
	userID string
	date   string
}

// History merges plans and EOD reports per (user, date) and applies f.
// Entries are ordered newest date first, then by user name.
func (s *Service) History(ctx context.Context, f Filter) ([]Entry, error) {
	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	people := make(map[string]model.User)
	if f.UserID != "" {
		for _, u := range sn.users {
			if u.ID == f.UserID {
				people[u.ID] = u
			}
		}
	} else {
		for _, u := range sn.employees {
			people[u.ID] = u
		}
	}

	merged := make(map[entryKey]*Entry)
	entry := func(userID, date string) *Entry {
		u, ok := people[userID]
		if !ok || !inRange(date, f.From, f.To) {
			return nil
		}
		k := entryKey{userID, date}
		if e, ok := merged[k]; ok {
			return e
		}
		e := &Entry{Date: date, User: u}
		merged[k] = e
		return e
	}
	for i := range sn.tasks {
		t := &sn.tasks[i]
		if e := entry(t.UserID, t.Date); e != nil {
			e.Plan = t
			e.Updated = later(e.Updated, t.UpdatedAt)
		}
	}
	for i := range sn.reports {
		r := &sn.reports[i]
		if e := entry(r.UserID, r.Date); e != nil {
			e.EOD = r
			e.Updated = later(e.Updated, r.UpdatedAt)
		}
	}

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Entry, 0, len(merged))
	for _, e := range merged {
		if !matchesType(*e, f.Type) {
			continue
		}
		if needle != "" && !matchesSearch(*e, needle, f.UserID == "") {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].User.Name < out[j].User.Name
	})
	return out, nil
}

func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func later(a, b string) string {
	if b > a {
		return b
	}
	return a
}

func matchesType(e Entry, t Type) bool {
	switch t {
	case TypePlanned:
		return e.HasPlan()
	case TypeEOD:
		return e.HasEOD()
	case TypeComplete:
		return e.Complete()
	default:
		return true
	}
}

func matchesSearch(e Entry, needle string, withUser bool) bool {
	if strings.Contains(e.Date, needle) {
		return true
	}
	if e.Plan != nil && containsFold(strings.Join(e.Plan.Tasks, " "), needle) {
		return true
	}
	if e.EOD != nil {
		text := strings.Join(e.EOD.CompletedTasks, " ") + " " + e.EOD.Challenges + " " +
			strings.Join(e.EOD.NextDayPlan, " ")
		if containsFold(text, needle) {
			return true
		}
	}
	if withUser {
		return containsFold(e.User.Name, needle) ||
			containsFold(e.User.Email, needle) ||
			containsFold(e.User.Department, needle)
	}
	return false
}
