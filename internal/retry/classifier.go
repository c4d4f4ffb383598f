package retry

import (
	"errors"
	"slices"
	"strings"

	"github.com/runger/toolwrap/internal/process"
)

// Classifier decides whether a failure is transient.
type Classifier interface {
	IsRetryable(err error) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) bool

// IsRetryable implements Classifier.
func (f ClassifierFunc) IsRetryable(err error) bool {
	return f(err)
}

// PolicyClassifier classifies failures using a Policy's analysis switches.
type PolicyClassifier struct {
	policy Policy
}

// NewPolicyClassifier creates a classifier for p.
func NewPolicyClassifier(p Policy) *PolicyClassifier {
	return &PolicyClassifier{policy: p}
}

// IsRetryable implements Classifier.
func (c *PolicyClassifier) IsRetryable(err error) bool {
	return IsRetryable(err, c.policy)
}

// IsRetryable reports whether err is an *process.ExecutionError with a result
// that any enabled check matches. Failures without a result (launch errors,
// validation errors, cancellation) are never retryable.
func IsRetryable(err error, p Policy) bool {
	var execErr *process.ExecutionError
	if !errors.As(err, &execErr) || execErr.Result == nil {
		return false
	}
	r := execErr.Result
	return checkExitCode(p, r.ExitCode) || checkOutput(p, r.Stdout) || checkError(p, r.Stderr)
}

func checkExitCode(p Policy, code int) bool {
	return p.ExitCodeAnalysis && slices.Contains(p.RetryExitCodes, code)
}

func checkOutput(p Policy, stdout string) bool {
	return p.OutputAnalysis && containsAny(stdout, p.RetryOutputContains)
}

func checkError(p Policy, stderr string) bool {
	return p.ErrorAnalysis && containsAny(stderr, p.RetryErrorContains)
}

// containsAny is a case-sensitive literal substring match.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
