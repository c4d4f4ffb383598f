// Package template maps symbolic command names to argument templates.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrCommandNotFound is returned by Resolve for unknown command names.
var ErrCommandNotFound = errors.New("command not found")

// placeholderRe matches one placeholder token, non-greedy.
var placeholderRe = regexp.MustCompile(`\{.*?\}`)

// Builtins returns the templates every registry starts with.
func Builtins() map[string]string {
	return map[string]string{
		"help":    "--help",
		"version": "--version",
	}
}

// Template is a resolved command template.
type Template struct {
	Name         string
	Format       string
	Placeholders int
}

// Registry is an immutable name -> template table.
// It is safe for concurrent reads.
type Registry struct {
	templates map[string]Template
}

// NewRegistry merges the built-in templates with commands.
// Entries in commands win on name collision.
func NewRegistry(commands map[string]string) *Registry {
	merged := Builtins()
	for name, format := range commands {
		merged[name] = format
	}

	templates := make(map[string]Template, len(merged))
	for name, format := range merged {
		templates[name] = Template{
			Name:         name,
			Format:       format,
			Placeholders: CountPlaceholders(format),
		}
	}
	return &Registry{templates: templates}
}

// Resolve looks up a template by name.
func (r *Registry) Resolve(name string) (Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	return t, nil
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// CountPlaceholders counts the non-overlapping {...} tokens in format.
func CountPlaceholders(format string) int {
	return len(placeholderRe.FindAllStringIndex(format, -1))
}

// Expand substitutes args into the template positionally.
func (t Template) Expand(args ...any) (string, error) {
	return Format(t.Format, args...)
}

// Format performs composite formatting: {i} is replaced with the text of
// args[i]. {i,width} right-aligns (negative width left-aligns) and the
// :format component is accepted but ignored. {{ and }} produce literal braces.
func Format(format string, args ...any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(format))

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case '{':
			if i+1 < len(format) && format[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(format[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("format %q: unclosed '{' at offset %d", format, i)
			}
			item := format[i+1 : i+1+end]
			text, err := formatItem(item, args)
			if err != nil {
				return "", fmt.Errorf("format %q: %w", format, err)
			}
			sb.WriteString(text)
			i += end + 1
		case '}':
			if i+1 < len(format) && format[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("format %q: unmatched '}' at offset %d", format, i)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// formatItem renders one "index[,alignment][:format]" item.
func formatItem(item string, args []any) (string, error) {
	field := item
	if idx := strings.IndexByte(field, ':'); idx >= 0 {
		field = field[:idx]
	}

	width := 0
	if idx := strings.IndexByte(field, ','); idx >= 0 {
		w, err := strconv.Atoi(strings.TrimSpace(field[idx+1:]))
		if err != nil {
			return "", fmt.Errorf("invalid alignment in {%s}", item)
		}
		width = w
		field = field[:idx]
	}

	index, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || index < 0 {
		return "", fmt.Errorf("invalid placeholder {%s}", item)
	}
	if index >= len(args) {
		return "", fmt.Errorf("placeholder {%s} refers to argument %d but only %d given", item, index, len(args))
	}

	text := toText(args[index])
	switch {
	case width > 0 && len(text) < width:
		text = strings.Repeat(" ", width-len(text)) + text
	case width < 0 && len(text) < -width:
		text += strings.Repeat(" ", -width-len(text))
	}
	return text, nil
}

// toText converts an argument to its text form; nil renders as empty.
func toText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
