package wrapper

import (
	"github.com/runger/toolwrap/internal/config"
	"github.com/runger/toolwrap/internal/process"
)

// SettingsFromConfig maps the tool and wrapper sections of cfg to Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	commands := make(map[string]string, len(cfg.Tool.Commands))
	for name, format := range cfg.Tool.Commands {
		commands[name] = format
	}

	return Settings{
		ToolPath:    cfg.Tool.Path,
		Commands:    commands,
		WorkDir:     cfg.Wrapper.WorkingDirectory,
		ErrorDialog: cfg.Wrapper.ErrorDialog,
		Env:         append([]string(nil), cfg.Wrapper.Env...),
		Policy:      cfg.Policy(),
		Secrets:     append([]string(nil), cfg.Wrapper.Secrets...),
	}
}

// NewFromConfig wires a Wrapper backed by a local ExecExecutor.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Wrapper, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	execOpts := append([]process.Option{
		process.WithGracePeriod(cfg.GracePeriod()),
		process.WithCapture(cfg.Wrapper.CaptureOutput, cfg.Wrapper.CaptureError),
	}, o.execOpts...)
	return New(SettingsFromConfig(cfg), process.NewExecExecutor(execOpts...), opts...)
}
