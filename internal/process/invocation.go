// Package process launches external tools and captures their output.
package process

import "strings"

// Invocation is a fully resolved, ready-to-launch process specification.
// It is built once per attempt and never modified afterwards.
type Invocation struct {
	Command     string   // symbolic command name the invocation was resolved from
	Executable  string   // path or name of the tool binary
	Arguments   string   // formatted argument string
	WorkDir     string   // working directory ("" = current directory)
	ErrorDialog bool     // Windows only: allow the OS error dialog for the child
	Env         []string // extra KEY=value pairs appended to the parent environment
}

// CommandLine returns the executable and arguments as a single display string.
func (inv Invocation) CommandLine() string {
	return strings.TrimSpace(inv.Executable + " " + inv.Arguments)
}

// Result is the outcome of one completed process run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited with code 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Stream identifies one of the captured output streams.
type Stream string

// Stream constants.
const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)
