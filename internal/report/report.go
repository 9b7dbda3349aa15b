// Package report computes the read-only views over stored submissions:
// dashboard stats, per-day compliance, the weekly trend, an employee's weekly
// summary, and the merged report history.
//
// Only users with the employee role count towards compliance. Rates are
// percentages in [0, 100] and are 0 when there are no employees.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/store"
)

// WeekDays is the length of the weekly trend and summary windows.
const WeekDays = 7

// Service reads collections from a store and builds reports.
type Service struct {
	store *store.Store
}

// New returns a report Service.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Stats is the admin dashboard headline for one day.
type Stats struct {
	Date             string  `json:"date"`
	TotalEmployees   int     `json:"totalEmployees"`
	TodaySubmissions int     `json:"todaySubmissions"`
	TodayPlanned     int     `json:"todayPlanned"`
	PendingReports   int     `json:"pendingReports"`
	ComplianceRate   float64 `json:"complianceRate"`
}

// ComplianceRow is one employee's status for a day.
type ComplianceRow struct {
	User         model.User       `json:"user"`
	Submitted    bool             `json:"submitted"`
	Report       *model.EODReport `json:"report,omitempty"`
	WorkingHours float64          `json:"workingHours"`
	EditCount    int              `json:"editCount"`
}

// ComplianceReport lists employees for a day with their EOD status.
type ComplianceReport struct {
	Date      string          `json:"date"`
	Total     int             `json:"total"`
	Submitted int             `json:"submitted"`
	Missing   int             `json:"missing"`
	Rate      float64         `json:"rate"`
	Rows      []ComplianceRow `json:"rows"`
}

// DayRate is one point of the weekly trend.
type DayRate struct {
	Date    string  `json:"date"`
	Reports int     `json:"reports"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

type snapshot struct {
	users     []model.User
	employees []model.User
	tasks     []model.PlannedTask
	reports   []model.EODReport
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	tasks, err := s.store.ListPlannedTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	reports, err := s.store.ListEODReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return &snapshot{
		users:     users,
		employees: employees(users),
		tasks:     tasks,
		reports:   reports,
	}, nil
}

func employees(users []model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Role == model.RoleEmployee {
			out = append(out, u)
		}
	}
	return out
}

func (sn *snapshot) eodFor(userID, date string) *model.EODReport {
	for i := range sn.reports {
		if sn.reports[i].UserID == userID && sn.reports[i].Date == date {
			return &sn.reports[i]
		}
	}
	return nil
}

func (sn *snapshot) planFor(userID, date string) *model.PlannedTask {
	for i := range sn.tasks {
		if sn.tasks[i].UserID == userID && sn.tasks[i].Date == date {
			return &sn.tasks[i]
		}
	}
	return nil
}

func (sn *snapshot) submittedOn(date string) (eod, planned int) {
	for _, u := range sn.employees {
		if sn.eodFor(u.ID, date) != nil {
			eod++
		}
		if sn.planFor(u.ID, date) != nil {
			planned++
		}
	}
	return eod, planned
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// DashboardStats counts the day's EOD submissions against the employees.
func (s *Service) DashboardStats(ctx context.Context, date string) (*Stats, error) {
	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	eod, planned := sn.submittedOn(date)
	total := len(sn.employees)
	return &Stats{
		Date:             date,
		TotalEmployees:   total,
		TodaySubmissions: eod,
		TodayPlanned:     planned,
		PendingReports:   total - eod,
		ComplianceRate:   rate(eod, total),
	}, nil
}

// Compliance returns one row per employee for date. With pendingOnly set,
// rows for employees who submitted are left out; the totals still cover all
// employees.
func (s *Service) Compliance(ctx context.Context, date string, pendingOnly bool) (*ComplianceReport, error) {
	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := &ComplianceReport{
		Date:  date,
		Total: len(sn.employees),
		Rows:  []ComplianceRow{},
	}
	for _, u := range sn.employees {
		r := sn.eodFor(u.ID, date)
		if r != nil {
			out.Submitted++
		}
		if pendingOnly && r != nil {
			continue
		}
		row := ComplianceRow{User: u, Submitted: r != nil, Report: r}
		if r != nil {
			row.WorkingHours = r.WorkingHours
			row.EditCount = r.EditCount
		}
		out.Rows = append(out.Rows, row)
	}
	out.Missing = out.Total - out.Submitted
	out.Rate = rate(out.Submitted, out.Total)
	return out, nil
}

// WeeklyCompliance returns the EOD rate for the seven days ending at endDate,
// oldest first.
func (s *Service) WeeklyCompliance(ctx context.Context, endDate string) ([]DayRate, error) {
	sn, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	days := make([]DayRate, 0, WeekDays)
	for i := WeekDays - 1; i >= 0; i-- {
		date, err := model.AddDays(endDate, -i)
		if err != nil {
			return nil, err
		}
		eod, _ := sn.submittedOn(date)
		days = append(days, DayRate{
			Date:    date,
			Reports: eod,
			Total:   len(sn.employees),
			Rate:    rate(eod, len(sn.employees)),
		})
	}
	return days, nil
}

// RecentReports returns up to n EOD reports, most recently updated first.
// n <= 0 returns every report.
func (s *Service) RecentReports(ctx context.Context, n int) ([]model.EODReport, error) {
	reports, err := s.store.ListEODReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].UpdatedAt > reports[j].UpdatedAt
	})
	if n > 0 && len(reports) > n {
		reports = reports[:n]
	}
	return reports, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
