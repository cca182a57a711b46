package summarizer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFinalStep is returned for a final step other than summarize or combine.
	ErrInvalidFinalStep = errors.New("final step unrecognized, expects 'summarize' or 'combine'")
	// ErrReductionDepthExceeded stops recursive reduction past the configured ceiling.
	ErrReductionDepthExceeded = errors.New("reduction depth exceeded")
	// ErrReductionStalled is returned when a reduction pass does not shrink the text.
	ErrReductionStalled = errors.New("reduction did not shrink text")
)

// ConfigError reports an invalid engine configuration.
type ConfigError struct {
	Field      string
	Reason     string
	ExceededBy int
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CompletionError wraps a single failed completion attempt.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return "completion failed"
	}
	return "completion failed: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// CompletionExhaustedError is returned once every retry for a completion failed.
type CompletionExhaustedError struct {
	Attempts int
	Err      error
}

func (e *CompletionExhaustedError) Error() string {
	return fmt.Sprintf("unable to return completion after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CompletionExhaustedError) Unwrap() error {
	return e.Err
}
