package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/toolwrap/internal/process"
	"github.com/runger/toolwrap/internal/retry"
	"github.com/runger/toolwrap/internal/wrapper"
)

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a templated command with retries",
	Long: `Run a templated command of the configured tool.

Positional arguments fill the template placeholders in order. The tool's
exit code becomes toolwrap's exit code.

Examples:
  toolwrap run version
  toolwrap run renew example.org
  toolwrap run renew example.org --retries 5 --interval 30s`,
	GroupID:      groupCore,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runCommand,
	SilenceUsage: true,
}

var (
	runStream   bool
	runRetries  int
	runInterval time.Duration
)

func init() {
	runCmd.Flags().BoolVar(&runStream, "stream", false, "print output lines as they arrive")
	runCmd.Flags().IntVar(&runRetries, "retries", 0, "override wrapper.retry_count")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "override wrapper.retry_interval_seconds")
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings := wrapper.SettingsFromConfig(cfg)
	if cmd.Flags().Changed("retries") {
		settings.Policy.MaxRetries = runRetries
	}
	if cmd.Flags().Changed("interval") {
		settings.Policy.Interval = runInterval
	}

	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	execOpts := []process.Option{
		process.WithGracePeriod(cfg.GracePeriod()),
		process.WithCapture(cfg.Wrapper.CaptureOutput, cfg.Wrapper.CaptureError),
	}
	if runStream {
		execOpts = append(execOpts, process.WithLineHandler(newLinePrinter(stdout, stderr)))
	}

	w, err := wrapper.New(settings, process.NewExecExecutor(execOpts...),
		wrapper.WithLogger(logger),
		wrapper.WithRetryObserver(func(e retry.Event) {
			fmt.Fprintf(stderr, "%sretry %d/%d%s %s: %v\n",
				colorYellow, e.Attempt, settings.Policy.MaxRetries, colorReset, e.Command, e.Err)
		}),
	)
	if err != nil {
		return &ExitError{Code: ExitValidationError, Message: err.Error()}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	callArgs := make([]any, len(args)-1)
	for i, a := range args[1:] {
		callArgs[i] = a
	}

	result, err := w.RunCommand(ctx, args[0], callArgs...)
	if err != nil {
		return runError(err, stdout, stderr, !runStream)
	}

	if !runStream {
		fmt.Fprint(stdout, result.Stdout)
		fmt.Fprint(stderr, result.Stderr)
	}
	return nil
}

// runError prints what the failed process wrote and maps err to an exit code.
func runError(err error, stdout, stderr io.Writer, printOutput bool) error {
	if wrapper.IsValidationError(err) {
		return &ExitError{Code: ExitValidationError, Message: err.Error()}
	}
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitCancelled, Message: "cancelled"}
	}

	var execErr *process.ExecutionError
	if errors.As(err, &execErr) && execErr.Result != nil {
		if printOutput {
			fmt.Fprint(stdout, execErr.Result.Stdout)
			fmt.Fprint(stderr, execErr.Result.Stderr)
		}
		return &ExitError{Code: execErr.Result.ExitCode, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// newLinePrinter returns a line handler that echoes each captured line to
// the matching writer. Lines from both streams are serialized.
func newLinePrinter(stdout, stderr io.Writer) func(process.Stream, string) {
	var mu sync.Mutex
	return func(stream process.Stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		if stream == process.Stderr {
			fmt.Fprintln(stderr, line)
			return
		}
		fmt.Fprintln(stdout, line)
	}
}
