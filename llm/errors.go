package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a model invocation fault.
type ErrorKind string

const (
	ErrAuth          ErrorKind = "auth"
	ErrRateLimit     ErrorKind = "rate_limit"
	ErrServer        ErrorKind = "server"
	ErrTimeout       ErrorKind = "timeout"
	ErrContextLength ErrorKind = "context_length"
	ErrProvider      ErrorKind = "provider"
	ErrConfiguration ErrorKind = "configuration"
)

// ModelError is a fault raised by the model invocation collaborator. These
// are the only errors the orchestration loop treats as fatal.
type ModelError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
	RetryAfter *float64 // seconds, from rate limit headers when present
	Cause      error
}

func (e *ModelError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ModelError) Unwrap() error { return e.Cause }

// IsRetryable reports whether err is a model fault worth retrying.
func IsRetryable(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Retryable
	}
	return false
}
