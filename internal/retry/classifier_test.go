package retry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runger/toolwrap/internal/process"
)

func failure(code int, stdout, stderr string) error {
	return &process.ExecutionError{
		Command:    "test",
		Executable: "tool",
		Arguments:  "test arg",
		Result:     &process.Result{ExitCode: code, Stdout: stdout, Stderr: stderr},
	}
}

func onlyExitCodes(codes ...int) Policy {
	return Policy{ExitCodeAnalysis: true, RetryExitCodes: codes}
}

func TestIsRetryable_NoResult(t *testing.T) {
	launch := &process.ExecutionError{Command: "test", Err: process.ErrLaunch}
	assert.False(t, IsRetryable(launch, DefaultPolicy()))
}

func TestIsRetryable_NotExecutionError(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("boom"), DefaultPolicy()))
	assert.False(t, IsRetryable(nil, DefaultPolicy()))
}

func TestIsRetryable_WrappedExecutionError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", failure(1, "", ""))
	assert.True(t, IsRetryable(err, onlyExitCodes(1)))
}

func TestIsRetryable_ExitCode(t *testing.T) {
	p := onlyExitCodes(1, 75)

	assert.True(t, IsRetryable(failure(1, "", ""), p))
	assert.True(t, IsRetryable(failure(75, "", ""), p))
	assert.False(t, IsRetryable(failure(2, "", ""), p))

	p.ExitCodeAnalysis = false
	assert.False(t, IsRetryable(failure(1, "", ""), p), "disabled check never matches")
}

func TestIsRetryable_Output(t *testing.T) {
	p := Policy{OutputAnalysis: true, RetryOutputContains: []string{"network error"}}

	assert.True(t, IsRetryable(failure(2, "fatal: network error while fetching", ""), p))
	assert.False(t, IsRetryable(failure(2, "fatal: Network Error", ""), p), "match is case-sensitive")
	assert.False(t, IsRetryable(failure(2, "", "network error"), p), "stderr is not output")

	p.OutputAnalysis = false
	assert.False(t, IsRetryable(failure(2, "network error", ""), p))
}

func TestIsRetryable_Error(t *testing.T) {
	p := Policy{ErrorAnalysis: true, RetryErrorContains: []string{"timeout"}}

	assert.True(t, IsRetryable(failure(2, "", "connect timeout"), p))
	assert.False(t, IsRetryable(failure(2, "timeout", ""), p))
	assert.False(t, IsRetryable(failure(2, "", "time.*out"), p))
}

func TestIsRetryable_LiteralNotPattern(t *testing.T) {
	p := Policy{ErrorAnalysis: true, RetryErrorContains: []string{"time.*out"}}

	assert.False(t, IsRetryable(failure(2, "", "timeout"), p))
	assert.True(t, IsRetryable(failure(2, "", "saw time.*out literally"), p))
}

func TestIsRetryable_AnyCheckMatches(t *testing.T) {
	p := DefaultPolicy()

	// Exit code does not match, but stderr does.
	assert.True(t, IsRetryable(failure(9, "", "read timeout"), p))
	// Exit code matches, text does not.
	assert.True(t, IsRetryable(failure(1, "all good", "all good"), p))
	// Nothing matches.
	assert.False(t, IsRetryable(failure(9, "bad input", "bad input"), p))
}

func TestPolicyClassifier(t *testing.T) {
	c := NewPolicyClassifier(onlyExitCodes(1))
	assert.True(t, c.IsRetryable(failure(1, "", "")))
	assert.False(t, c.IsRetryable(failure(3, "", "")))
}

func TestClassifierFunc(t *testing.T) {
	var c Classifier = ClassifierFunc(func(err error) bool { return err != nil })
	assert.True(t, c.IsRetryable(errors.New("x")))
}

func TestPolicy_MaxAttempts(t *testing.T) {
	assert.Equal(t, 4, DefaultPolicy().MaxAttempts())
	assert.Equal(t, 1, Policy{}.MaxAttempts())
	assert.Equal(t, 1, Policy{MaxRetries: -2}.MaxAttempts())
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{MaxRetries: -1}.Validate())
	assert.Error(t, Policy{Interval: -1}.Validate())
}
