package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/workflow"
)

// NewUserCommand creates the user command group. Every subcommand requires
// an admin session.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users (admin)",
	}
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserUpdateCommand(rootOpts))
	cmd.AddCommand(newUserDeleteCommand(rootOpts))
	return cmd
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all users",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, runUserList)
		},
	}
}

func runUserList(ctx context.Context, a *app) error {
	if _, err := a.requireAdmin(ctx); err != nil {
		return err
	}
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return a.fail(err)
	}

	return a.formatter.Render(users, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tDEPARTMENT")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, dash(u.Department))
		}
		tw.Flush()
	})
}

// userFlags binds the editable user fields to a command.
type userFlags struct {
	in   workflow.UserInput
	role string
}

func (f *userFlags) bind(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVar(&f.in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&f.in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&f.role, "role", string(model.RoleEmployee), "employee or admin")
	cmd.Flags().StringVar(&f.in.Department, "department", "", "department")
	cmd.Flags().StringVar(&f.in.Position, "position", "", "position")
	cmd.Flags().StringVar(&f.in.Phone, "phone", "", "phone number")
	if required {
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("name")
	}
}

func (f *userFlags) input(a *app) (workflow.UserInput, error) {
	role, err := model.ParseRole(f.role)
	if err != nil {
		return workflow.UserInput{}, a.invalidInput(err.Error())
	}
	in := f.in
	in.Role = role
	return in, nil
}

// overlay returns base with the fields whose flags were set on cmd replaced.
func (f *userFlags) overlay(a *app, cmd *cobra.Command, base model.User) (workflow.UserInput, error) {
	in := workflow.UserInput{
		Email:      base.Email,
		Name:       base.Name,
		Role:       base.Role,
		Department: base.Department,
		Position:   base.Position,
		Phone:      base.Phone,
	}
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("email", &in.Email, f.in.Email)
	set("name", &in.Name, f.in.Name)
	set("department", &in.Department, f.in.Department)
	set("position", &in.Position, f.in.Position)
	set("phone", &in.Phone, f.in.Phone)
	if cmd.Flags().Changed("role") {
		role, err := model.ParseRole(f.role)
		if err != nil {
			return workflow.UserInput{}, a.invalidInput(err.Error())
		}
		in.Role = role
	}
	return in, nil
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &userFlags{}

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Add a user",
		Example:       `  worktrack user add --email sam.lee@company.com --name "Sam Lee" --department Support`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireAdmin(ctx)
				if err != nil {
					return err
				}
				in, err := flags.input(a)
				if err != nil {
					return err
				}
				user, err := a.workflow.CreateUser(ctx, *actor, in)
				if err != nil {
					return a.fail(err)
				}
				return a.formatter.Render(user, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added user %s\n", user.ID)
					printUser(w, *user)
				})
			})
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func newUserUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &userFlags{}

	cmd := &cobra.Command{
		Use:           "update <id>",
		Short:         "Change a user's details",
		Long:          "Change a user's details. Only the fields given as flags are changed.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireAdmin(ctx)
				if err != nil {
					return err
				}
				existing, err := a.store.FindUser(ctx, args[0])
				if err != nil {
					return a.fail(err)
				}
				var base model.User
				if existing != nil {
					base = *existing
				}
				in, err := flags.overlay(a, cmd, base)
				if err != nil {
					return err
				}
				user, err := a.workflow.UpdateUser(ctx, *actor, args[0], in)
				if err != nil {
					return a.fail(err)
				}
				return a.formatter.Render(user, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Updated user %s\n", user.ID)
					printUser(w, *user)
				})
			})
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func newUserDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a user and all of their plans and reports",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireAdmin(ctx)
				if err != nil {
					return err
				}
				if err := a.workflow.DeleteUser(ctx, *actor, args[0]); err != nil {
					return a.fail(err)
				}
				return a.formatter.Render(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted user %s\n", args[0])
				})
			})
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
