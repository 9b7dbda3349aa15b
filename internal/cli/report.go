package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/report"
)

// DefaultHistoryDays is how far back history looks when --from is not set.
const DefaultHistoryDays = 30

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Review submissions and compliance",
		Long: `Review submissions and compliance.

stats, compliance, weekly and recent require an admin session. summary and
history show the signed-in employee's own records; admins may pass --user.`,
	}
	cmd.AddCommand(newReportStatsCommand(rootOpts))
	cmd.AddCommand(newReportComplianceCommand(rootOpts))
	cmd.AddCommand(newReportWeeklyCommand(rootOpts))
	cmd.AddCommand(newReportSummaryCommand(rootOpts))
	cmd.AddCommand(newReportHistoryCommand(rootOpts))
	cmd.AddCommand(newReportRecentCommand(rootOpts))
	return cmd
}

func reportCommand(use, short string, run func(ctx context.Context, a *app) error, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(ctx context.Context, a *app) error {
				return run(ctx, a)
			})
		},
	}
}

func newReportStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	cmd := reportCommand("stats", "Show the day's submission counts", func(ctx context.Context, a *app) error {
		if _, err := a.requireAdmin(ctx); err != nil {
			return err
		}
		day, err := a.resolveDate(date)
		if err != nil {
			return err
		}
		stats, err := a.reports.DashboardStats(ctx, day)
		if err != nil {
			return a.fail(err)
		}
		return a.formatter.Render(stats, func(w io.Writer) {
			fmt.Fprintf(w, "Dashboard for %s\n", stats.Date)
			fmt.Fprintf(w, "  employees:       %d\n", stats.TotalEmployees)
			fmt.Fprintf(w, "  plans submitted: %d\n", stats.TodayPlanned)
			fmt.Fprintf(w, "  eod submitted:   %d\n", stats.TodaySubmissions)
			fmt.Fprintf(w, "  eod pending:     %d\n", stats.PendingReports)
			fmt.Fprintf(w, "  compliance:      %.0f%%\n", stats.ComplianceRate)
		})
	}, rootOpts)
	cmd.Flags().StringVar(&date, "date", "", "day, YYYY-MM-DD (default today)")
	return cmd
}

func newReportComplianceCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	var pending bool
	cmd := reportCommand("compliance", "Show each employee's EOD status for a day", func(ctx context.Context, a *app) error {
		if _, err := a.requireAdmin(ctx); err != nil {
			return err
		}
		day, err := a.resolveDate(date)
		if err != nil {
			return err
		}
		rep, err := a.reports.Compliance(ctx, day, pending)
		if err != nil {
			return a.fail(err)
		}
		return a.formatter.Render(rep, func(w io.Writer) {
			fmt.Fprintf(w, "Compliance for %s: %d/%d submitted (%.0f%%), %d missing\n",
				rep.Date, rep.Submitted, rep.Total, rep.Rate, rep.Missing)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tSTATUS\tHOURS\tEDITS")
			for _, row := range rep.Rows {
				status, hours, edits := "missing", "-", "-"
				if row.Submitted {
					status = "submitted"
					hours = fmt.Sprintf("%g", row.WorkingHours)
					edits = fmt.Sprintf("%d", row.EditCount)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					row.User.ID, row.User.Name, dash(row.User.Department), status, hours, edits)
			}
			tw.Flush()
		})
	}, rootOpts)
	cmd.Flags().StringVar(&date, "date", "", "day, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&pending, "pending", false, "only list employees who have not submitted")
	return cmd
}

func newReportWeeklyCommand(rootOpts *RootOptions) *cobra.Command {
	var end string
	cmd := reportCommand("weekly", "Show the EOD rate for the last seven days", func(ctx context.Context, a *app) error {
		if _, err := a.requireAdmin(ctx); err != nil {
			return err
		}
		day, err := a.resolveDate(end)
		if err != nil {
			return err
		}
		days, err := a.reports.WeeklyCompliance(ctx, day)
		if err != nil {
			return a.fail(err)
		}
		return a.formatter.Render(days, func(w io.Writer) {
			for _, d := range days {
				fmt.Fprintf(w, "%s  %d/%d  %3.0f%%  %s\n", d.Date, d.Reports, d.Total, d.Rate, bar(d.Rate))
			}
		})
	}, rootOpts)
	cmd.Flags().StringVar(&end, "end", "", "last day of the week, YYYY-MM-DD (default today)")
	return cmd
}

func newReportSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var date, userID string
	cmd := reportCommand("summary", "Show an employee's last seven days", func(ctx context.Context, a *app) error {
		target, err := a.resolveTarget(ctx, userID)
		if err != nil {
			return err
		}
		day, err := a.resolveDate(date)
		if err != nil {
			return err
		}
		sum, err := a.reports.EmployeeSummary(ctx, target, day)
		if err != nil {
			return a.fail(err)
		}
		return a.formatter.Render(sum, func(w io.Writer) {
			fmt.Fprintf(w, "Week ending %s\n", sum.Today)
			fmt.Fprintf(w, "  today's plan:    %s\n", yesNo(sum.TodayPlan != nil))
			fmt.Fprintf(w, "  today's eod:     %s\n", yesNo(sum.TodayEOD != nil))
			fmt.Fprintf(w, "  reports:         %d/%d\n", sum.WeekReports, report.WeekDays)
			fmt.Fprintf(w, "  completion rate: %.0f%%\n", sum.CompletionRate)
			fmt.Fprintf(w, "  average hours:   %.1fh\n", sum.AvgWorkingHours)
			for _, r := range sum.Recent {
				fmt.Fprintf(w, "  %s  %d tasks completed  %gh\n", r.Date, len(r.CompletedTasks), r.WorkingHours)
			}
		})
	}, rootOpts)
	cmd.Flags().StringVar(&date, "date", "", "last day of the week, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&userID, "user", "", "user id (admin only, default yourself)")
	return cmd
}

// HistoryView is the payload of report history.
type HistoryView struct {
	Totals  report.HistoryTotals `json:"totals"`
	Entries []report.Entry       `json:"entries"`
}

func newReportHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var userID, from, to, search, typ string
	cmd := reportCommand("history", "List past plans and reports by day", func(ctx context.Context, a *app) error {
		user, err := a.requireUser(ctx)
		if err != nil {
			return err
		}
		filter := report.Filter{Search: search}

		switch {
		case !user.IsAdmin():
			if userID != "" && userID != user.ID {
				return a.forbidden()
			}
			filter.UserID = user.ID
		default:
			filter.UserID = userID
		}

		if filter.Type, err = report.ParseType(typ); err != nil {
			return a.invalidInput(err.Error())
		}
		if filter.To, err = a.resolveDate(to); err != nil {
			return err
		}
		first := from
		if first == "" {
			if first, err = model.AddDays(filter.To, -DefaultHistoryDays); err != nil {
				return a.fail(err)
			}
		}
		if filter.From, err = a.resolveDate(first); err != nil {
			return err
		}

		entries, err := a.reports.History(ctx, filter)
		if err != nil {
			return a.fail(err)
		}
		view := HistoryView{Totals: report.Totals(entries), Entries: entries}
		return a.formatter.Render(view, func(w io.Writer) {
			t := view.Totals
			fmt.Fprintf(w, "%d days: %d complete, %d plan only, %d eod only\n",
				t.Days, t.Complete, t.PlannedOnly, t.EODOnly)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tUSER\tPLANNED\tCOMPLETED\tHOURS")
			for _, e := range entries {
				planned, completed, hours := "-", "-", "-"
				if e.Plan != nil {
					planned = fmt.Sprintf("%d", len(e.Plan.Tasks))
				}
				if e.EOD != nil {
					completed = fmt.Sprintf("%d", len(e.EOD.CompletedTasks))
					hours = fmt.Sprintf("%g", e.EOD.WorkingHours)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date, e.User.Name, planned, completed, hours)
			}
			tw.Flush()
		})
	}, rootOpts)
	cmd.Flags().StringVar(&userID, "user", "", "user id (admins default to every employee)")
	cmd.Flags().StringVar(&from, "from", "", fmt.Sprintf("first day, YYYY-MM-DD (default %d days before --to)", DefaultHistoryDays))
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to match")
	cmd.Flags().StringVar(&typ, "type", string(report.TypeAll), "all, planned, eod or complete")
	return cmd
}

func newReportRecentCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := reportCommand("recent", "List the most recently updated EOD reports", func(ctx context.Context, a *app) error {
		if _, err := a.requireAdmin(ctx); err != nil {
			return err
		}
		reports, err := a.reports.RecentReports(ctx, limit)
		if err != nil {
			return a.fail(err)
		}
		return a.formatter.Render(reports, func(w io.Writer) {
			if len(reports) == 0 {
				fmt.Fprintln(w, "No reports yet")
				return
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "UPDATED\tUSER\tDATE\tCOMPLETED\tHOURS")
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%g\n", r.UpdatedAt, r.UserID, r.Date, len(r.CompletedTasks), r.WorkingHours)
			}
			tw.Flush()
		})
	}, rootOpts)
	cmd.Flags().IntVar(&limit, "limit", 5, "number of reports, 0 for all")
	return cmd
}

// resolveTarget returns the user id a per-employee report is about.
// Employees may only see themselves.
func (a *app) resolveTarget(ctx context.Context, userID string) (string, error) {
	user, err := a.requireUser(ctx)
	if err != nil {
		return "", err
	}
	if userID == "" || userID == user.ID {
		return user.ID, nil
	}
	if !user.IsAdmin() {
		return "", a.forbidden()
	}
	return userID, nil
}

func bar(rate float64) string {
	return strings.Repeat("#", int(rate/10+0.5))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
