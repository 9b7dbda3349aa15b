package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/kv"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Backend overrides the configured substrate (for testing). The CLI does
	// not close an injected backend.
	Backend kv.Store

	// Now and NewID override the clock and record id source (for testing).
	Now   func() time.Time
	NewID func() string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultConfigPath is read when --config is not given. It may be absent.
const DefaultConfigPath = "worktrack.yaml"

// NewRootCommand creates the root command for the worktrack CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, so tests
// can inject a backend and a clock.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktrack",
		Short: "worktrack - daily plans and end-of-day reports",
		Long: `Track daily work: employees plan their tasks each morning and file an
end-of-day report; administrators review compliance and manage users.

Each record can be edited up to three times after it is first submitted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default "+DefaultConfigPath+")")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewEODCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
