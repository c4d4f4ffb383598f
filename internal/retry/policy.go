// Package retry decides whether failed tool invocations are re-attempted.
package retry

import (
	"errors"
	"time"
)

// Policy configures retry behaviour. It is read-only once built.
type Policy struct {
	// MaxRetries is the number of re-attempts after the initial attempt.
	MaxRetries int
	// Interval is the constant wait between attempts. No jitter, no growth.
	Interval time.Duration

	ExitCodeAnalysis bool
	RetryExitCodes   []int

	OutputAnalysis      bool
	RetryOutputContains []string

	ErrorAnalysis      bool
	RetryErrorContains []string
}

// DefaultPolicy returns the stock policy: 3 retries, 10 seconds apart,
// retrying exit code 1 and output mentioning network errors or timeouts.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:          3,
		Interval:            10 * time.Second,
		ExitCodeAnalysis:    true,
		RetryExitCodes:      []int{1},
		OutputAnalysis:      true,
		RetryOutputContains: []string{"network error", "timeout"},
		ErrorAnalysis:       true,
		RetryErrorContains:  []string{"network error", "timeout"},
	}
}

// MaxAttempts returns the upper bound on attempts for one call.
func (p Policy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Validate checks the numeric fields.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("retry count must be >= 0")
	}
	if p.Interval < 0 {
		return errors.New("retry interval must be >= 0")
	}
	return nil
}
