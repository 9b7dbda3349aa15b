package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/workflow"
)

// EODView is the payload of eod show.
type EODView struct {
	Date      string           `json:"date"`
	Report    *model.EODReport `json:"report,omitempty"`
	Remaining int              `json:"remaining"`
}

// NewEODCommand creates the eod command group.
func NewEODCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eod",
		Short: "File the end-of-day report",
	}
	cmd.AddCommand(newEODSubmitCommand(rootOpts))
	cmd.AddCommand(newEODShowCommand(rootOpts))
	return cmd
}

func newEODSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var date, challenges, doneFile string
	var in workflow.EODInput

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit or edit the end-of-day report for a day",
		Long: `Submit the end-of-day report for a day, or replace it if already submitted.

At least one completed task is required and working hours must be more than 0
and at most 24. A report can be edited three times after it is first
submitted.`,
		Example: `  worktrack eod submit --done "Shipped login fix" --hours 7.5 \
    --challenges "Flaky CI" --next "Review onboarding doc"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				if doneFile != "" {
					lines, err := readLines(cmd.InOrStdin(), doneFile)
					if err != nil {
						return a.invalidInput(err.Error())
					}
					in.CompletedTasks = append(in.CompletedTasks, lines...)
				}
				in.Challenges = challenges
				return runEODSubmit(ctx, a, date, in)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to report, YYYY-MM-DD (default today)")
	cmd.Flags().StringArrayVarP(&in.CompletedTasks, "done", "d", nil, "completed task (repeatable)")
	cmd.Flags().StringVar(&doneFile, "done-file", "", "read completed tasks one per line from a file, - for stdin")
	cmd.Flags().StringVar(&challenges, "challenges", "", "blockers or challenges")
	cmd.Flags().StringArrayVarP(&in.NextDayPlan, "next", "n", nil, "plan for the next day (repeatable)")
	cmd.Flags().Float64Var(&in.WorkingHours, "hours", 0, "hours worked, more than 0 and at most 24 (required)")
	_ = cmd.MarkFlagRequired("hours")

	return cmd
}

func runEODSubmit(ctx context.Context, a *app, dateFlag string, in workflow.EODInput) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	date, err := a.resolveDate(dateFlag)
	if err != nil {
		return err
	}

	res, err := a.workflow.SubmitEOD(ctx, *user, date, in)
	if err != nil {
		return a.fail(err)
	}

	return a.formatter.Render(res, func(w io.Writer) {
		verb := "updated"
		if res.Created {
			verb = "submitted"
		}
		fmt.Fprintf(w, "✓ EOD report for %s %s (%d tasks, %gh)\n",
			date, verb, len(res.Report.CompletedTasks), res.Report.WorkingHours)
		fmt.Fprintf(w, "  %s\n", editsLeft(res.Remaining))
	})
}

func newEODShowCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show your end-of-day report for a day",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return runEODShow(ctx, a, date)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day, YYYY-MM-DD (default today)")
	return cmd
}

func runEODShow(ctx context.Context, a *app, dateFlag string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	date, err := a.resolveDate(dateFlag)
	if err != nil {
		return err
	}

	report, err := a.store.FindEODReport(ctx, user.ID, date)
	if err != nil {
		return a.fail(err)
	}
	remaining, err := a.workflow.Governor().Remaining(ctx, user.ID, date, model.RecordEOD)
	if err != nil {
		return a.fail(err)
	}

	view := EODView{Date: date, Report: report, Remaining: remaining}
	return a.formatter.Render(view, func(w io.Writer) {
		if report == nil {
			fmt.Fprintf(w, "No EOD report for %s\n", date)
			return
		}
		printEOD(w, *report)
		fmt.Fprintf(w, "  last updated %s, %s\n", report.UpdatedAt, editsLeft(remaining))
	})
}

func printEOD(w io.Writer, r model.EODReport) {
	fmt.Fprintf(w, "EOD report for %s (%gh)\n", r.Date, r.WorkingHours)
	fmt.Fprintln(w, " Completed:")
	printList(w, r.CompletedTasks)
	if r.Challenges != "" {
		fmt.Fprintf(w, " Challenges: %s\n", r.Challenges)
	}
	if len(r.NextDayPlan) > 0 {
		fmt.Fprintln(w, " Next day:")
		printList(w, r.NextDayPlan)
	}
}
