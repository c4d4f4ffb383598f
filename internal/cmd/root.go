// Package cmd implements the toolwrap command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/runger/toolwrap/internal/config"
	"github.com/runger/toolwrap/internal/logging"
)

const (
	groupCore  = "core"
	groupSetup = "setup"
)

// Exit codes used when the failure did not come from the wrapped tool.
const (
	ExitFailure         = 1
	ExitValidationError = 2
	ExitCancelled       = 130
)

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Message string
	Code    int
}

func (e *ExitError) Error() string {
	return e.Message
}

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "toolwrap",
	Short: "Run an external tool's commands with automatic retries",
	Long: `toolwrap - run templated commands of an external tool

Commands are named argument templates such as "renew --cert-name {0}".
Transient failures are retried based on exit codes and output text.`,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// PrintError writes err to w in the CLI's error format.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%sError:%s %v\n", colorRed, colorReset, err)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: XDG config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config selected by --config, or the default file.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configFile returns the path config writes go to.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPaths().ConfigFile()
}

// newLogger builds the logger described by cfg.Log. The returned closer
// releases the log file, if one was opened.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = slog.LevelDebug
	}

	out := stderr
	closer := func() {}
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closer = func() { _ = f.Close() }
	}

	logger := logging.New(&logging.Config{
		Output: out,
		Level:  level,
		Format: cfg.Log.Format,
	})
	return logger, closer, nil
}
