package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("token expired")
	ErrInactiveUser     = errors.New("user account is inactive")
	ErrEmailTaken       = errors.New("email already registered")
)

// RateLimitError reports a rejected request together with the usage that
// caused the rejection. Used is the counter value at decision time; the
// counter is not incremented for rejected requests.
type RateLimitError struct {
	Used    int
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("monthly limit (%d) exceeded: %d requests used", e.Limit, e.Used)
}

// PipelineError wraps a failure of a single translation step.
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
