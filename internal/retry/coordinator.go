package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/runger/toolwrap/internal/process"
)

// Event is emitted before every re-attempt.
type Event struct {
	RunID   string        // correlation id from the context, if any
	Attempt int           // 1-based retry number
	Command string        // symbolic command name
	Err     error         // failure that triggered the retry
	Delay   time.Duration // time waited before this retry
}

// AttemptFunc performs one attempt. attempt is 0 for the initial try.
type AttemptFunc func(ctx context.Context, attempt int) (*process.Result, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClassifier replaces the PolicyClassifier built from the policy.
func WithClassifier(c Classifier) CoordinatorOption {
	return func(co *Coordinator) {
		if c != nil {
			co.classifier = c
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(co *Coordinator) {
		if l != nil {
			co.logger = l
		}
	}
}

// WithSleep replaces the timer-based wait. Tests use it to avoid real delays.
func WithSleep(fn SleepFunc) CoordinatorOption {
	return func(co *Coordinator) {
		if fn != nil {
			co.sleep = fn
		}
	}
}

// WithObserver registers a callback for retry events.
func WithObserver(fn func(Event)) CoordinatorOption {
	return func(co *Coordinator) {
		if fn != nil {
			co.observers = append(co.observers, fn)
		}
	}
}

// Coordinator drives the attempt loop:
//
//	Attempting -> Success
//	Attempting -> Classifying -> Exhausted
//	Attempting -> Classifying -> Waiting -> Attempting
//
// A Coordinator holds no per-call state and may be shared between callers.
type Coordinator struct {
	policy     Policy
	classifier Classifier
	logger     *slog.Logger
	sleep      SleepFunc
	observers  []func(Event)
}

// NewCoordinator creates a coordinator for policy p.
func NewCoordinator(p Policy, opts ...CoordinatorOption) *Coordinator {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	c := &Coordinator{
		policy:     p,
		classifier: NewPolicyClassifier(p),
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the coordinator's policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// Execute runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. The last failure is returned unchanged.
func (c *Coordinator) Execute(ctx context.Context, command string, fn AttemptFunc) (*process.Result, error) {
	runID := RunIDFromContext(ctx)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}

		if attempt >= c.policy.MaxRetries || !c.classifier.IsRetryable(err) {
			return nil, err
		}

		if sleepErr := c.sleep(ctx, c.policy.Interval); sleepErr != nil {
			return nil, fmt.Errorf("retrying %s: %w: %w", command, err, sleepErr)
		}

		event := Event{
			RunID:   runID,
			Attempt: attempt + 1,
			Command: command,
			Err:     err,
			Delay:   c.policy.Interval,
		}
		c.logger.Warn("retrying command",
			"run_id", runID,
			"retry", event.Attempt,
			"command", command,
			"error", err.Error(),
		)
		for _, observe := range c.observers {
			observe(event)
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type runIDKey struct{}

// WithRunID returns a context carrying a correlation id for retry events.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the id stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
