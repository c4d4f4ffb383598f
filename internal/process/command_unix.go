//go:build !windows

package process

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// buildPlatformCommand splits the argument string using POSIX shlex rules.
// No shell is involved. The error dialog flag has no meaning here.
func buildPlatformCommand(inv Invocation) (*exec.Cmd, error) {
	argv, err := splitArguments(inv.Arguments)
	if err != nil {
		return nil, fmt.Errorf("splitting arguments: %w", err)
	}
	return exec.Command(inv.Executable, argv...), nil
}

// splitArguments splits an argument string into argv with POSIX quoting.
// Unlike a shell, '#' never starts a comment: "issue #5 --force" yields
// three arguments.
func splitArguments(s string) ([]string, error) {
	return shlex.Split(escapeCommentRunes(s))
}

// escapeCommentRunes backslash-escapes every unquoted '#' that begins a
// word, the only position where shlex reads it as a comment.
func escapeCommentRunes(s string) string {
	const (
		unquoted = iota
		singleQuoted
		doubleQuoted
	)

	var b strings.Builder
	b.Grow(len(s))

	state := unquoted
	escaped := false
	wordStart := true
	for _, r := range s {
		literal := escaped
		escaped = false

		switch {
		case literal:
		case state == singleQuoted:
			if r == '\'' {
				state = unquoted
			}
		case state == doubleQuoted:
			switch r {
			case '\\':
				escaped = true
			case '"':
				state = unquoted
			}
		default:
			switch r {
			case '\\':
				escaped = true
			case '\'':
				state = singleQuoted
			case '"':
				state = doubleQuoted
			case '#':
				if wordStart {
					b.WriteByte('\\')
				}
			}
		}

		b.WriteRune(r)
		wordStart = !literal && state == unquoted && strings.ContainsRune(" \t\r\n", r)
	}
	return b.String()
}
