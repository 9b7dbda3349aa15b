package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/worktrack/internal/auth"
	"github.com/roach88/worktrack/internal/config"
	"github.com/roach88/worktrack/internal/kv"
	"github.com/roach88/worktrack/internal/model"
	"github.com/roach88/worktrack/internal/report"
	"github.com/roach88/worktrack/internal/schema"
	"github.com/roach88/worktrack/internal/store"
	"github.com/roach88/worktrack/internal/workflow"
)

// app is everything a command needs, opened from configuration.
type app struct {
	cfg       config.Config
	formatter *OutputFormatter
	logger    *slog.Logger
	backend   kv.Store
	owned     bool
	store     *store.Store
	auth      *auth.Authenticator
	workflow  *workflow.Service
	reports   *report.Service
	now       func() time.Time
	seeded    bool
}

// openApp loads configuration, opens the backend and wires the services.
// Failures are returned as ExitErrors with the output already written.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: level}))

	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = DefaultConfigPath, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	a := &app{
		cfg:       cfg,
		formatter: formatter,
		logger:    logger,
		now:       time.Now,
	}
	if opts.Now != nil {
		a.now = opts.Now
	}

	if opts.Backend != nil {
		a.backend = opts.Backend
	} else {
		backend, err := openBackend(ctx, cfg)
		if err != nil {
			_ = formatter.Error(ErrCodeStorage, "failed to open storage", err.Error())
			return nil, WrapExitError(ExitCommandError, "failed to open storage", err)
		}
		a.backend, a.owned = backend, true
		logger.Info("storage opened", "backend", cfg.Backend)
	}

	validator, err := schema.New()
	if err != nil {
		a.Close()
		_ = formatter.Error(ErrCodeConfig, "failed to load record schema", err.Error())
		return nil, WrapExitError(ExitCommandError, "failed to load record schema", err)
	}

	newID := uuid.NewString
	if opts.NewID != nil {
		newID = opts.NewID
	}

	a.store = store.New(a.backend,
		store.WithKeyPrefix(cfg.KeyPrefix),
		store.WithLogger(logger),
		store.WithClock(a.now),
	)
	a.auth = auth.New(a.store, auth.WithPolicy(cfg.PasswordPolicy), auth.WithLogger(logger))
	a.workflow = workflow.New(a.store, validator,
		workflow.WithClock(a.now),
		workflow.WithIDGenerator(newID),
		workflow.WithLogger(logger),
	)
	a.reports = report.New(a.store)
	return a, nil
}

func openBackend(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendSQLite:
		return kv.OpenSQLite(cfg.SQLite.Path)
	case config.BackendRedis:
		return kv.OpenRedis(ctx, kv.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Close releases a backend the app opened itself.
func (a *app) Close() {
	if !a.owned || a.backend == nil {
		return
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
}

// today is the current calendar day by the app clock.
func (a *app) today() string {
	return model.DateOf(a.now())
}

// requireUser returns the signed-in user.
func (a *app) requireUser(ctx context.Context) (*model.User, error) {
	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	if user == nil {
		_ = a.formatter.Error(ErrCodeNotSignedIn, "not signed in: run worktrack login", nil)
		return nil, NewExitError(ExitFailure, "not signed in")
	}
	return user, nil
}

// requireAdmin returns the signed-in user if they are an admin.
func (a *app) requireAdmin(ctx context.Context) (*model.User, error) {
	user, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, a.forbidden()
	}
	return user, nil
}

func (a *app) forbidden() error {
	_ = a.formatter.Error(string(workflow.ErrCodeForbidden), "admin role required", nil)
	return NewExitError(ExitFailure, "admin role required")
}

// resolveDate returns flag when set and valid, otherwise today.
func (a *app) resolveDate(flag string) (string, error) {
	if flag == "" {
		return a.today(), nil
	}
	if _, err := model.ParseDate(flag); err != nil {
		return "", a.invalidInput(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", flag))
	}
	return flag, nil
}

func (a *app) invalidInput(message string) error {
	_ = a.formatter.Error(ErrCodeInvalidInput, message, nil)
	return NewExitError(ExitFailure, message)
}

// fail writes err and maps it to an exit code. Workflow rejections exit 1
// with their own message. Anything else is a storage failure and exits 2
// with a generic message; the cause is logged.
func (a *app) fail(err error) error {
	var we *workflow.Error
	if errors.As(err, &we) {
		var details any
		if len(we.Details) > 0 {
			details = we.Details
		}
		message := we.Message
		if we.Err != nil {
			message = fmt.Sprintf("%s: %v", we.Message, we.Err)
		}
		_ = a.formatter.Error(string(we.Code), message, details)
		return WrapExitError(ExitFailure, string(we.Code), err)
	}

	a.logger.Error("command failed", "error", err)
	_ = a.formatter.Error(ErrCodeStorage, "failed, please try again", err.Error())
	return WrapExitError(ExitCommandError, "failed, please try again", err)
}

// withApp opens the app for the duration of run.
func withApp(opts *RootOptions, cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Storage is seeded on first use, whatever the command.
	if a.seeded, err = a.store.Initialize(ctx); err != nil {
		return a.fail(err)
	}
	return run(ctx, a)
}
