package wrapper

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

// redaction is a credential shape that is masked even when its value was
// never configured as a secret.
type redaction struct {
	re          *regexp.Regexp
	replacement string
}

var credentialPatterns = []redaction{
	{regexp.MustCompile(`(?i)(password|passwd|token|secret|api[_-]?key)(\s*[=:]\s*|\s+)([^\s'"]+)`), "$1$2***"},
	{regexp.MustCompile(`(?i)(bearer|basic)\s+[A-Za-z0-9+/=._-]{16,}`), "$1 ***"},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "***"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "***"},
	{regexp.MustCompile(`gh[po]_[A-Za-z0-9]{36}`), "***"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`), "***"},
}

// SecretMasker replaces secret values with "***" in log output.
type SecretMasker struct {
	values []string // sorted longest-first for greedy matching
	names  []string
}

// NewSecretMasker reads the named environment variables and masks their
// values. Unset or empty variables are skipped.
func NewSecretMasker(envNames []string) *SecretMasker {
	if len(envNames) == 0 {
		return &SecretMasker{}
	}

	type secretEntry struct {
		value string
		name  string
	}
	entries := make([]secretEntry, 0, len(envNames))
	for _, name := range envNames {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		entries = append(entries, secretEntry{value: val, name: name})
	}

	// Longer secrets first so a secret that contains another is fully masked.
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].value) > len(entries[j].value)
	})

	m := &SecretMasker{
		values: make([]string, 0, len(entries)),
		names:  make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		m.values = append(m.values, e.value)
		m.names = append(m.names, e.name)
	}
	return m
}

// Mask replaces configured secret values and well-known credential shapes
// (key=value tokens, bearer headers, JWTs, cloud and forge keys, PEM blocks)
// in input with "***".
func (m *SecretMasker) Mask(input string) string {
	if m != nil {
		for _, v := range m.values {
			input = strings.ReplaceAll(input, v, "***")
		}
	}
	for _, p := range credentialPatterns {
		input = p.re.ReplaceAllString(input, p.replacement)
	}
	return input
}

// SecretNames returns the names of the variables being masked.
func (m *SecretMasker) SecretNames() []string {
	if m == nil {
		return nil
	}
	return m.names
}
