// Package wrapper runs templated commands of one external tool with retries.
//
// A Wrapper owns the command registry and a retry coordinator. Every
// RunCommand call resolves the command, checks the argument count, builds a
// process invocation and hands it to the executor, once per attempt.
package wrapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runger/toolwrap/internal/process"
	"github.com/runger/toolwrap/internal/retry"
	"github.com/runger/toolwrap/internal/template"
)

// Settings describes the wrapped tool and how to run it.
type Settings struct {
	ToolPath    string            // executable path or name on PATH
	Commands    map[string]string // command name -> argument template
	WorkDir     string
	ErrorDialog bool
	Env         []string // extra KEY=value pairs for the child
	Policy      retry.Policy
	Secrets     []string // env var names whose values are masked in logs
}

// Option configures a Wrapper.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	classifier retry.Classifier
	sleep      retry.SleepFunc
	observers  []func(retry.Event)
	execOpts   []process.Option
	newRunID   func() string
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRetryObserver registers a callback invoked before every re-attempt.
func WithRetryObserver(fn func(retry.Event)) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(fn retry.SleepFunc) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// WithClassifier replaces the policy-based failure classifier.
// Validation errors stay non-retryable regardless of the classifier.
func WithClassifier(c retry.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithExecutorOptions passes options to the executor built by NewFromConfig.
func WithExecutorOptions(opts ...process.Option) Option {
	return func(o *options) {
		o.execOpts = append(o.execOpts, opts...)
	}
}

// Wrapper executes templated commands of a single tool.
// It is safe for concurrent use; each RunCommand call is independent.
type Wrapper struct {
	settings    Settings
	registry    *template.Registry
	executor    process.Executor
	coordinator *retry.Coordinator
	masker      *SecretMasker
	logger      *slog.Logger
	newRunID    func() string
}

// New creates a Wrapper that runs invocations through executor.
func New(s Settings, executor process.Executor, opts ...Option) (*Wrapper, error) {
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if strings.TrimSpace(s.ToolPath) == "" {
		return nil, errors.New("tool path is required")
	}
	if err := s.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	o := options{
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	classifier := o.classifier
	if classifier == nil {
		classifier = retry.NewPolicyClassifier(s.Policy)
	}
	guarded := retry.ClassifierFunc(func(err error) bool {
		return !IsValidationError(err) && classifier.IsRetryable(err)
	})

	coordOpts := []retry.CoordinatorOption{
		retry.WithLogger(o.logger),
		retry.WithClassifier(guarded),
		retry.WithSleep(o.sleep),
	}
	for _, fn := range o.observers {
		coordOpts = append(coordOpts, retry.WithObserver(fn))
	}

	return &Wrapper{
		settings:    s,
		registry:    template.NewRegistry(s.Commands),
		executor:    executor,
		coordinator: retry.NewCoordinator(s.Policy, coordOpts...),
		masker:      NewSecretMasker(s.Secrets),
		logger:      o.logger,
		newRunID:    o.newRunID,
	}, nil
}

// RunCommand runs the named command with positional args, retrying transient
// failures according to the policy. On exhaustion the last attempt's error is
// returned unchanged.
func (w *Wrapper) RunCommand(ctx context.Context, command string, args ...any) (*process.Result, error) {
	runID := w.newRunID()
	ctx = retry.WithRunID(ctx, runID)
	logger := w.logger.With("run_id", runID, "command", command)

	return w.coordinator.Execute(ctx, command, func(ctx context.Context, attempt int) (*process.Result, error) {
		return w.attempt(ctx, logger, command, attempt, args)
	})
}

func (w *Wrapper) attempt(ctx context.Context, logger *slog.Logger, command string, attempt int, args []any) (*process.Result, error) {
	inv, err := w.invocation(command, args)
	if err != nil {
		logger.Error("invalid command request", "error", err.Error())
		return nil, err
	}

	logger.Debug("starting process",
		"attempt", attempt,
		"executable", inv.Executable,
		"arguments", w.masker.Mask(inv.Arguments),
	)
	start := time.Now()
	defer func() {
		logger.Debug("process finished", "attempt", attempt, "elapsed", time.Since(start).String())
	}()

	result, err := w.executor.Run(ctx, inv)
	if err != nil {
		var execErr *process.ExecutionError
		if errors.As(err, &execErr) {
			logger.Error("process failed",
				"attempt", attempt,
				"exit_code", execErr.ExitCode(),
				"error", w.masker.Mask(err.Error()),
			)
		} else {
			logger.Error("unexpected error running process",
				"attempt", attempt,
				"error", w.masker.Mask(err.Error()),
			)
		}
		return nil, err
	}

	logger.Debug("process succeeded",
		"exit_code", result.ExitCode,
		"stdout", w.masker.Mask(result.Stdout),
		"stderr", w.masker.Mask(result.Stderr),
	)
	return result, nil
}

// invocation resolves command and args into a launchable Invocation.
func (w *Wrapper) invocation(command string, args []any) (process.Invocation, error) {
	t, err := w.registry.Resolve(command)
	if err != nil {
		return process.Invocation{}, &CommandNotFoundError{Command: command}
	}
	if len(args) != t.Placeholders {
		return process.Invocation{}, &ArgumentCountError{
			Command:  command,
			Expected: t.Placeholders,
			Actual:   len(args),
		}
	}

	arguments, err := t.Expand(args...)
	if err != nil {
		return process.Invocation{}, &TemplateError{Command: command, Err: err}
	}

	return process.Invocation{
		Command:     command,
		Executable:  w.settings.ToolPath,
		Arguments:   arguments,
		WorkDir:     w.settings.WorkDir,
		ErrorDialog: w.settings.ErrorDialog,
		Env:         w.settings.Env,
	}, nil
}

// Commands returns the available command names, sorted.
func (w *Wrapper) Commands() []string {
	return w.registry.Names()
}

// Template returns the template registered under name.
func (w *Wrapper) Template(name string) (template.Template, error) {
	t, err := w.registry.Resolve(name)
	if err != nil {
		return template.Template{}, &CommandNotFoundError{Command: name}
	}
	return t, nil
}

// Policy returns the effective retry policy.
func (w *Wrapper) Policy() retry.Policy {
	return w.coordinator.Policy()
}
