package wrapper

import (
	"errors"
	"fmt"

	"github.com/runger/toolwrap/internal/template"
)

var (
	// ErrArgumentCountMismatch is matched by every *ArgumentCountError.
	ErrArgumentCountMismatch = errors.New("argument count mismatch")
	// ErrInvalidTemplate is matched by every *TemplateError.
	ErrInvalidTemplate = errors.New("invalid command template")
)

// CommandNotFoundError reports a command name missing from the registry.
type CommandNotFoundError struct {
	Command string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command '%s' not found", e.Command)
}

func (e *CommandNotFoundError) Unwrap() error {
	return template.ErrCommandNotFound
}

// ArgumentCountError reports a call whose argument count differs from the
// template's placeholder count.
type ArgumentCountError struct {
	Command  string
	Expected int
	Actual   int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("command '%s' expects %d arguments, but got %d", e.Command, e.Expected, e.Actual)
}

func (e *ArgumentCountError) Is(target error) bool {
	return target == ErrArgumentCountMismatch
}

// TemplateError reports a registered template that cannot be expanded with
// the given arguments, such as a placeholder index past the argument list.
type TemplateError struct {
	Command string
	Err     error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("command '%s' has an invalid template: %v", e.Command, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

func (e *TemplateError) Is(target error) bool {
	return target == ErrInvalidTemplate
}

// IsValidationError reports whether err was raised before any process was
// launched because the request itself was invalid.
func IsValidationError(err error) bool {
	return errors.Is(err, template.ErrCommandNotFound) ||
		errors.Is(err, ErrArgumentCountMismatch) ||
		errors.Is(err, ErrInvalidTemplate)
}
