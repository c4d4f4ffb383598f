package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/runger/toolwrap/internal/retry"
)

// Config represents the toolwrap configuration.
type Config struct {
	Tool    ToolConfig    `yaml:"tool" toml:"tool"`
	Wrapper WrapperConfig `yaml:"wrapper" toml:"wrapper"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ToolConfig describes the wrapped command-line tool.
type ToolConfig struct {
	Path                string            `yaml:"path" toml:"path"`                                   // Executable path or name on PATH
	Commands            map[string]string `yaml:"commands" toml:"commands"`                           // Command name -> argument template
	RetryExitCodes      []int             `yaml:"retry_exit_codes" toml:"retry_exit_codes"`           // Exit codes that trigger a retry
	RetryOutputContains []string          `yaml:"retry_output_contains" toml:"retry_output_contains"` // Stdout substrings that trigger a retry
	RetryErrorContains  []string          `yaml:"retry_error_contains" toml:"retry_error_contains"`   // Stderr substrings that trigger a retry
}

// WrapperConfig holds execution and retry settings.
type WrapperConfig struct {
	WorkingDirectory         string   `yaml:"working_directory" toml:"working_directory"`                         // Child working directory ("" = current)
	ErrorDialog              bool     `yaml:"error_dialog" toml:"error_dialog"`                                   // Windows: let the OS show error dialogs
	RetryCount               int      `yaml:"retry_count" toml:"retry_count"`                                     // Re-attempts after the first try
	RetryIntervalSeconds     int      `yaml:"retry_interval_seconds" toml:"retry_interval_seconds"`               // Fixed wait between attempts
	RetryUseExitCodeAnalysis bool     `yaml:"retry_use_exit_code_analysis" toml:"retry_use_exit_code_analysis"`   // Match retry_exit_codes
	RetryUseOutputAnalysis   bool     `yaml:"retry_use_output_analysis" toml:"retry_use_output_analysis"`         // Match retry_output_contains
	RetryUseErrorAnalysis    bool     `yaml:"retry_use_error_analysis" toml:"retry_use_error_analysis"`           // Match retry_error_contains
	GracePeriodMs            int      `yaml:"grace_period_ms" toml:"grace_period_ms"`                             // Interrupt-to-kill delay on cancellation
	CaptureOutput            bool     `yaml:"capture_output" toml:"capture_output"`                               // Capture stdout (false = pass through)
	CaptureError             bool     `yaml:"capture_error" toml:"capture_error"`                                 // Capture stderr (false = pass through)
	Secrets                  []string `yaml:"secrets,omitempty" toml:"secrets,omitempty"`                         // Env var names whose values are masked in logs
	Env                      []string `yaml:"env,omitempty" toml:"env,omitempty"`                                 // Extra KEY=value pairs for the child
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json or text
	File   string `yaml:"file" toml:"file"`     // Log file path ("" = stderr)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tool: ToolConfig{
			Path:                "",
			Commands:            map[string]string{},
			RetryExitCodes:      []int{1},
			RetryOutputContains: []string{"network error", "timeout"},
			RetryErrorContains:  []string{"network error", "timeout"},
		},
		Wrapper: WrapperConfig{
			WorkingDirectory:         "",
			ErrorDialog:              false,
			RetryCount:               3,
			RetryIntervalSeconds:     10,
			RetryUseExitCodeAnalysis: true,
			RetryUseOutputAnalysis:   true,
			RetryUseErrorAnalysis:    true,
			GracePeriodMs:            5000,
			CaptureOutput:            true,
			CaptureError:             true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   "",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	//nolint:gosec // path is provided by the user or the XDG default.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Policy converts the retry settings into a retry.Policy.
func (c *Config) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries:          c.Wrapper.RetryCount,
		Interval:            time.Duration(c.Wrapper.RetryIntervalSeconds) * time.Second,
		ExitCodeAnalysis:    c.Wrapper.RetryUseExitCodeAnalysis,
		RetryExitCodes:      append([]int(nil), c.Tool.RetryExitCodes...),
		OutputAnalysis:      c.Wrapper.RetryUseOutputAnalysis,
		RetryOutputContains: append([]string(nil), c.Tool.RetryOutputContains...),
		ErrorAnalysis:       c.Wrapper.RetryUseErrorAnalysis,
		RetryErrorContains:  append([]string(nil), c.Tool.RetryErrorContains...),
	}
}

// GracePeriod returns the cancellation grace period.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Wrapper.GracePeriodMs) * time.Millisecond
}

// Get retrieves a configuration value by dot-separated key.
// For example: "wrapper.retry_count" or "commands.renew".
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "tool":
		return c.getToolField(field)
	case "commands":
		v, ok := c.Tool.Commands[field]
		if !ok {
			return "", fmt.Errorf("unknown command: %s", field)
		}
		return v, nil
	case "wrapper":
		return c.getWrapperField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
// "commands.<name>" adds or replaces a command template; an empty value removes it.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "tool":
		return c.setToolField(field, value)
	case "commands":
		if c.Tool.Commands == nil {
			c.Tool.Commands = map[string]string{}
		}
		if value == "" {
			delete(c.Tool.Commands, field)
		} else {
			c.Tool.Commands[field] = value
		}
		return nil
	case "wrapper":
		return c.setWrapperField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (string, string, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return section, field, nil
}

func (c *Config) getToolField(field string) (string, error) {
	switch field {
	case "path":
		return c.Tool.Path, nil
	case "retry_exit_codes":
		return joinInts(c.Tool.RetryExitCodes), nil
	case "retry_output_contains":
		return strings.Join(c.Tool.RetryOutputContains, ","), nil
	case "retry_error_contains":
		return strings.Join(c.Tool.RetryErrorContains, ","), nil
	default:
		return "", fmt.Errorf("unknown field: tool.%s", field)
	}
}

func (c *Config) setToolField(field, value string) error {
	switch field {
	case "path":
		c.Tool.Path = value
	case "retry_exit_codes":
		codes, err := splitInts(value)
		if err != nil {
			return fmt.Errorf("invalid value for retry_exit_codes: %w", err)
		}
		c.Tool.RetryExitCodes = codes
	case "retry_output_contains":
		c.Tool.RetryOutputContains = splitList(value)
	case "retry_error_contains":
		c.Tool.RetryErrorContains = splitList(value)
	default:
		return fmt.Errorf("unknown field: tool.%s", field)
	}
	return nil
}

func (c *Config) getWrapperField(field string) (string, error) {
	switch field {
	case "working_directory":
		return c.Wrapper.WorkingDirectory, nil
	case "error_dialog":
		return strconv.FormatBool(c.Wrapper.ErrorDialog), nil
	case "retry_count":
		return strconv.Itoa(c.Wrapper.RetryCount), nil
	case "retry_interval_seconds":
		return strconv.Itoa(c.Wrapper.RetryIntervalSeconds), nil
	case "retry_use_exit_code_analysis":
		return strconv.FormatBool(c.Wrapper.RetryUseExitCodeAnalysis), nil
	case "retry_use_output_analysis":
		return strconv.FormatBool(c.Wrapper.RetryUseOutputAnalysis), nil
	case "retry_use_error_analysis":
		return strconv.FormatBool(c.Wrapper.RetryUseErrorAnalysis), nil
	case "grace_period_ms":
		return strconv.Itoa(c.Wrapper.GracePeriodMs), nil
	case "capture_output":
		return strconv.FormatBool(c.Wrapper.CaptureOutput), nil
	case "capture_error":
		return strconv.FormatBool(c.Wrapper.CaptureError), nil
	case "secrets":
		return strings.Join(c.Wrapper.Secrets, ","), nil
	default:
		return "", fmt.Errorf("unknown field: wrapper.%s", field)
	}
}

func (c *Config) setWrapperField(field, value string) error {
	switch field {
	case "working_directory":
		c.Wrapper.WorkingDirectory = value
	case "error_dialog":
		return setBool(&c.Wrapper.ErrorDialog, field, value)
	case "retry_count":
		return setInt(&c.Wrapper.RetryCount, field, value)
	case "retry_interval_seconds":
		return setInt(&c.Wrapper.RetryIntervalSeconds, field, value)
	case "retry_use_exit_code_analysis":
		return setBool(&c.Wrapper.RetryUseExitCodeAnalysis, field, value)
	case "retry_use_output_analysis":
		return setBool(&c.Wrapper.RetryUseOutputAnalysis, field, value)
	case "retry_use_error_analysis":
		return setBool(&c.Wrapper.RetryUseErrorAnalysis, field, value)
	case "grace_period_ms":
		return setInt(&c.Wrapper.GracePeriodMs, field, value)
	case "capture_output":
		return setBool(&c.Wrapper.CaptureOutput, field, value)
	case "capture_error":
		return setBool(&c.Wrapper.CaptureError, field, value)
	case "secrets":
		c.Wrapper.Secrets = splitList(value)
	default:
		return fmt.Errorf("unknown field: wrapper.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "format":
		return c.Log.Format, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "format":
		if !isValidLogFormat(value) {
			return fmt.Errorf("invalid log format: %s (must be json or text)", value)
		}
		c.Log.Format = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func setInt(dst *int, field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, field, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	*dst = v
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Wrapper.RetryCount < 0 {
		return errors.New("wrapper.retry_count must be >= 0")
	}

	if c.Wrapper.RetryIntervalSeconds < 0 {
		return errors.New("wrapper.retry_interval_seconds must be >= 0")
	}

	if c.Wrapper.GracePeriodMs < 0 {
		return errors.New("wrapper.grace_period_ms must be >= 0")
	}

	for name := range c.Tool.Commands {
		if strings.TrimSpace(name) == "" {
			return errors.New("tool.commands must not contain an empty command name")
		}
	}

	for _, kv := range c.Wrapper.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("wrapper.env entries must be KEY=value (got: %s)", kv)
		}
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	if !isValidLogFormat(c.Log.Format) {
		return fmt.Errorf("log.format must be json or text (got: %s)", c.Log.Format)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	switch format {
	case "json", "text":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TOOLWRAP_TOOL_PATH"); v != "" {
		c.Tool.Path = v
	}
	if v := os.Getenv("TOOLWRAP_RETRY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Wrapper.RetryCount = n
		}
	}
	if v := os.Getenv("TOOLWRAP_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("TOOLWRAP_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
}

// ListKeys returns user-facing configuration keys, followed by one
// "commands.<name>" key per configured template.
func (c *Config) ListKeys() []string {
	keys := []string{
		"tool.path",
		"tool.retry_exit_codes",
		"tool.retry_output_contains",
		"tool.retry_error_contains",
		"wrapper.working_directory",
		"wrapper.error_dialog",
		"wrapper.retry_count",
		"wrapper.retry_interval_seconds",
		"wrapper.retry_use_exit_code_analysis",
		"wrapper.retry_use_output_analysis",
		"wrapper.retry_use_error_analysis",
		"wrapper.grace_period_ms",
		"wrapper.capture_output",
		"wrapper.capture_error",
		"wrapper.secrets",
		"log.level",
		"log.format",
		"log.file",
	}

	names := make([]string, 0, len(c.Tool.Commands))
	for name := range c.Tool.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		keys = append(keys, "commands."+name)
	}
	return keys
}
