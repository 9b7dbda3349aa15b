package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/model"
)

// PlanView is the payload of plan show.
type PlanView struct {
	Date      string             `json:"date"`
	Task      *model.PlannedTask `json:"task,omitempty"`
	Remaining int                `json:"remaining"`
}

// NewPlanCommand creates the plan command group.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the day's tasks",
	}
	cmd.AddCommand(newPlanSubmitCommand(rootOpts))
	cmd.AddCommand(newPlanShowCommand(rootOpts))
	return cmd
}

func newPlanSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var date, file string
	var tasks []string

	cmd := &cobra.Command{
		Use:   "submit [task...]",
		Short: "Submit or edit the planned tasks for a day",
		Long: `Submit the planned tasks for a day, or replace them if already submitted.

Tasks come from arguments, repeated --task flags, or one per line from
--file (use - for stdin). Blank lines are dropped. A plan can be edited three
times after it is first submitted.`,
		Example: `  worktrack plan submit "Review PR #12" "Write release notes"
  worktrack plan submit --date 2025-03-03 --file tasks.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				lines := append(append([]string{}, args...), tasks...)
				if file != "" {
					fromFile, err := readLines(cmd.InOrStdin(), file)
					if err != nil {
						return a.invalidInput(err.Error())
					}
					lines = append(lines, fromFile...)
				}
				return runPlanSubmit(ctx, a, date, lines)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to plan, YYYY-MM-DD (default today)")
	cmd.Flags().StringArrayVarP(&tasks, "task", "t", nil, "task line (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read tasks one per line from a file, - for stdin")

	return cmd
}

func runPlanSubmit(ctx context.Context, a *app, dateFlag string, lines []string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	date, err := a.resolveDate(dateFlag)
	if err != nil {
		return err
	}

	res, err := a.workflow.SubmitPlan(ctx, *user, date, lines)
	if err != nil {
		return a.fail(err)
	}

	return a.formatter.Render(res, func(w io.Writer) {
		verb := "updated"
		if res.Created {
			verb = "submitted"
		}
		fmt.Fprintf(w, "✓ Plan for %s %s (%d tasks)\n", date, verb, len(res.Task.Tasks))
		fmt.Fprintf(w, "  %s\n", editsLeft(res.Remaining))
	})
}

func newPlanShowCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show your planned tasks for a day",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return runPlanShow(ctx, a, date)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day, YYYY-MM-DD (default today)")
	return cmd
}

func runPlanShow(ctx context.Context, a *app, dateFlag string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	date, err := a.resolveDate(dateFlag)
	if err != nil {
		return err
	}

	task, err := a.store.FindPlannedTask(ctx, user.ID, date)
	if err != nil {
		return a.fail(err)
	}
	remaining, err := a.workflow.Governor().Remaining(ctx, user.ID, date, model.RecordPlanned)
	if err != nil {
		return a.fail(err)
	}

	view := PlanView{Date: date, Task: task, Remaining: remaining}
	return a.formatter.Render(view, func(w io.Writer) {
		if task == nil {
			fmt.Fprintf(w, "No plan for %s\n", date)
			return
		}
		fmt.Fprintf(w, "Plan for %s\n", date)
		printList(w, task.Tasks)
		fmt.Fprintf(w, "  last updated %s, %s\n", task.UpdatedAt, editsLeft(remaining))
	})
}

func editsLeft(remaining int) string {
	switch remaining {
	case 0:
		return "no edits remaining"
	case 1:
		return "1 edit remaining"
	}
	return fmt.Sprintf("%d edits remaining", remaining)
}

func printList(w io.Writer, items []string) {
	for i, item := range items {
		fmt.Fprintf(w, "  %d. %s\n", i+1, item)
	}
}

// readLines reads newline-separated lines from path, or from stdin when path
// is "-".
func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open task file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return lines, nil
}
