package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Builtins(t *testing.T) {
	r := NewRegistry(nil)

	help, err := r.Resolve("help")
	require.NoError(t, err)
	assert.Equal(t, "--help", help.Format)
	assert.Equal(t, 0, help.Placeholders)

	version, err := r.Resolve("version")
	require.NoError(t, err)
	assert.Equal(t, "--version", version.Format)
	assert.Equal(t, []string{"help", "version"}, r.Names())
}

func TestNewRegistry_CallerEntriesWin(t *testing.T) {
	r := NewRegistry(map[string]string{
		"help":  "-h {0}",
		"renew": "renew --cert-name {0} --days {1}",
	})

	help, err := r.Resolve("help")
	require.NoError(t, err)
	assert.Equal(t, "-h {0}", help.Format)
	assert.Equal(t, 1, help.Placeholders)

	renew, err := r.Resolve("renew")
	require.NoError(t, err)
	assert.Equal(t, 2, renew.Placeholders)
	assert.Equal(t, 3, r.Len())
}

func TestNewRegistry_DoesNotAliasInput(t *testing.T) {
	commands := map[string]string{"a": "{0}"}
	r := NewRegistry(commands)
	commands["b"] = "x"
	delete(commands, "a")

	_, err := r.Resolve("a")
	assert.NoError(t, err)
	_, err = r.Resolve("b")
	assert.Error(t, err)
}

func TestResolve_NotFound(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Resolve("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandNotFound))
	assert.Contains(t, err.Error(), "nope")
}

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		format string
		want   int
	}{
		{"", 0},
		{"--help", 0},
		{"test {0}", 1},
		{"{0} {1} {2}", 3},
		{"{0}{1}", 2},
		{"{0} {0}", 2},
		{"{0,5} {1:x}", 2},
		{"{ unclosed", 0},
		{"{a}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, CountPlaceholders(tt.format))
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []any
		want   string
	}{
		{"no placeholders", "--version", nil, "--version"},
		{"single", "test {0}", []any{"arg"}, "test arg"},
		{"positional order", "{1} {0}", []any{"a", "b"}, "b a"},
		{"repeated index", "{0}-{0}", []any{"x"}, "x-x"},
		{"non-string values", "--count {0} --force {1}", []any{3, true}, "--count 3 --force true"},
		{"nil renders empty", "[{0}]", []any{nil}, "[]"},
		{"right align", "[{0,4}]", []any{"ab"}, "[  ab]"},
		{"left align", "[{0,-4}]", []any{"ab"}, "[ab  ]"},
		{"format component ignored", "{0:D4}", []any{7}, "7"},
		{"escaped braces", "{{literal}} {0}", []any{"v"}, "{literal} v"},
		{"spaces in index", "{ 0 }", []any{"v"}, "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.format, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []any
	}{
		{"index out of range", "{1}", []any{"a"}},
		{"non-numeric index", "{a}", []any{"a"}},
		{"negative index", "{-1}", []any{"a"}},
		{"unclosed brace", "{0", []any{"a"}},
		{"unmatched close", "a}", nil},
		{"bad alignment", "{0,x}", []any{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.format, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestTemplate_Expand(t *testing.T) {
	r := NewRegistry(map[string]string{"test": "test {0}"})
	tmpl, err := r.Resolve("test")
	require.NoError(t, err)

	got, err := tmpl.Expand("arg")
	require.NoError(t, err)
	assert.Equal(t, "test arg", got)
}
