package retry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/toolwrap/internal/process"
)

// fakeSleep records requested delays without waiting.
type fakeSleep struct {
	delays []time.Duration
}

func (f *fakeSleep) sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestCoordinator_SuccessFirstAttempt(t *testing.T) {
	sleeper := &fakeSleep{}
	c := NewCoordinator(DefaultPolicy(), WithSleep(sleeper.sleep))

	want := &process.Result{ExitCode: 0, Stdout: "ok"}
	calls := 0
	got, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return want, nil
	})

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestCoordinator_ExhaustsRetries(t *testing.T) {
	var logs bytes.Buffer
	sleeper := &fakeSleep{}
	var events []Event

	p := Policy{MaxRetries: 3, Interval: time.Second, ExitCodeAnalysis: true, RetryExitCodes: []int{1}}
	c := NewCoordinator(p,
		WithSleep(sleeper.sleep),
		WithLogger(newTestLogger(&logs)),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	var last error
	var attempts []int
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		attempts = append(attempts, attempt)
		last = failure(1, "out", "err")
		return nil, last
	})

	require.Error(t, err)
	assert.Same(t, last, err, "the last failure is surfaced unchanged")
	assert.Equal(t, []int{0, 1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, sleeper.delays)
	assert.Equal(t, 3, strings.Count(logs.String(), "level=WARN"))

	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.Attempt)
		assert.Equal(t, "test", e.Command)
		assert.Equal(t, time.Second, e.Delay)
	}

	var execErr *process.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.Result.ExitCode)
	assert.Equal(t, "out", execErr.Result.Stdout)
	assert.Equal(t, "err", execErr.Result.Stderr)
}

func TestCoordinator_SucceedsOnSecondAttempt(t *testing.T) {
	var events []Event
	sleeper := &fakeSleep{}
	p := onlyExitCodes(1)
	p.MaxRetries = 3
	c := NewCoordinator(p,
		WithSleep(sleeper.sleep),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	want := &process.Result{ExitCode: 0, Stdout: "ok"}
	calls := 0
	got, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		if attempt == 0 {
			return nil, failure(1, "", "")
		}
		return want, nil
	})

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 2, calls)
	assert.Len(t, events, 1)
	assert.Len(t, sleeper.delays, 1)
}

func TestCoordinator_NonRetryableFailsImmediately(t *testing.T) {
	sleeper := &fakeSleep{}
	p := onlyExitCodes(1)
	p.MaxRetries = 5
	c := NewCoordinator(p, WithSleep(sleeper.sleep))

	calls := 0
	want := failure(2, "", "")
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return nil, want
	})

	assert.Same(t, want, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestCoordinator_ValidationErrorsAreNotRetried(t *testing.T) {
	p := DefaultPolicy()
	c := NewCoordinator(p, WithSleep((&fakeSleep{}).sleep))

	calls := 0
	sentinel := errors.New("command not found")
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return nil, sentinel
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestCoordinator_ZeroRetries(t *testing.T) {
	c := NewCoordinator(Policy{ExitCodeAnalysis: true, RetryExitCodes: []int{1}}, WithSleep((&fakeSleep{}).sleep))

	calls := 0
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return nil, failure(1, "", "")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCoordinator_NegativeRetriesTreatedAsZero(t *testing.T) {
	p := onlyExitCodes(1)
	p.MaxRetries = -3
	c := NewCoordinator(p, WithSleep((&fakeSleep{}).sleep))
	assert.Equal(t, 0, c.Policy().MaxRetries)
}

func TestCoordinator_CustomClassifier(t *testing.T) {
	p := Policy{MaxRetries: 2}
	c := NewCoordinator(p,
		WithSleep((&fakeSleep{}).sleep),
		WithClassifier(ClassifierFunc(func(error) bool { return true })),
	)

	calls := 0
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return nil, errors.New("always")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestCoordinator_CancelDuringWait(t *testing.T) {
	p := onlyExitCodes(1)
	p.MaxRetries = 3
	p.Interval = time.Hour
	c := NewCoordinator(p)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := c.Execute(ctx, "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		cancel()
		return nil, failure(1, "", "")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	var execErr *process.ExecutionError
	require.True(t, errors.As(err, &execErr), "the failed attempt stays inspectable")
	assert.Equal(t, 1, execErr.ExitCode())

	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCoordinator_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := NewCoordinator(DefaultPolicy()).Execute(ctx, "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		calls++
		return nil, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCoordinator_RealSleepWaitsInterval(t *testing.T) {
	p := onlyExitCodes(1)
	p.MaxRetries = 2
	p.Interval = 20 * time.Millisecond
	c := NewCoordinator(p)

	start := time.Now()
	_, err := c.Execute(context.Background(), "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		return nil, failure(1, "", "")
	})

	assert.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestCoordinator_EventCarriesRunID(t *testing.T) {
	p := onlyExitCodes(1)
	p.MaxRetries = 1
	var events []Event
	c := NewCoordinator(p,
		WithSleep((&fakeSleep{}).sleep),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	ctx := WithRunID(context.Background(), "run-123")
	_, _ = c.Execute(ctx, "test", func(ctx context.Context, attempt int) (*process.Result, error) {
		return nil, failure(1, "", "")
	})

	require.Len(t, events, 1)
	assert.Equal(t, "run-123", events[0].RunID)
	assert.Equal(t, "", RunIDFromContext(context.Background()))
}
