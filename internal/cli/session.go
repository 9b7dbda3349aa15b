package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/model"
)

// InitResult is the payload of the init command.
type InitResult struct {
	Seeded bool `json:"seeded"`
	Users  int  `json:"users"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed the default users into empty storage",
		Long: `Seed the default administrator and two employees when no users exist.

Every command seeds empty storage before it runs; init does only that and
reports whether seeding happened. Storage that already has users is left
unchanged.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, runInit)
		},
	}
}

func runInit(ctx context.Context, a *app) error {
	seeded := a.seeded
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return a.fail(err)
	}

	result := InitResult{Seeded: seeded, Users: len(users)}
	return a.formatter.Render(result, func(w io.Writer) {
		if seeded {
			fmt.Fprintf(w, "✓ Seeded %d users\n", len(users))
			return
		}
		fmt.Fprintf(w, "Already initialized (%d users)\n", len(users))
	})
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email and password",
		Example: `  worktrack login --email john.doe@company.com --password emp123
  worktrack login --email admin@company.com --password admin123`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return runLogin(ctx, a, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runLogin(ctx context.Context, a *app, email, password string) error {
	user, err := a.auth.Authenticate(ctx, email, password)
	if err != nil {
		return a.fail(err)
	}
	if user == nil {
		_ = a.formatter.Error(ErrCodeAuthFailed, "invalid email or password", nil)
		return NewExitError(ExitFailure, "invalid email or password")
	}

	return a.formatter.Render(user, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Signed in as %s (%s)\n", user.Name, user.Role)
	})
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Clear the current session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				if err := a.auth.Logout(ctx); err != nil {
					return a.fail(err)
				}
				return a.formatter.Render(map[string]bool{"signedOut": true}, func(w io.Writer) {
					fmt.Fprintln(w, "✓ Signed out")
				})
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the signed-in user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				user, err := a.requireUser(ctx)
				if err != nil {
					return err
				}
				return a.formatter.Render(user, func(w io.Writer) {
					printUser(w, *user)
				})
			})
		},
	}
}

func printUser(w io.Writer, u model.User) {
	fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w, "  id:         %s\n", u.ID)
	fmt.Fprintf(w, "  role:       %s\n", u.Role)
	if u.Department != "" {
		fmt.Fprintf(w, "  department: %s\n", u.Department)
	}
	if u.Position != "" {
		fmt.Fprintf(w, "  position:   %s\n", u.Position)
	}
	if u.Phone != "" {
		fmt.Fprintf(w, "  phone:      %s\n", u.Phone)
	}
}
