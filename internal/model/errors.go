package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// Caller errors, never retried.
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrValidation)
	ErrInvalidQuery      = fmt.Errorf("%w: invalid query", ErrValidation)

	// Authorization failures.
	ErrAccessDenied          = errors.New("access denied")
	ErrBanned                = errors.New("caller is banned")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	ErrRateLimited = errors.New("rate limited")

	// Dataset failures. ErrBusy is retried internally and escalates to ErrFatal.
	ErrBusy    = errors.New("dataset busy")
	ErrFatal   = errors.New("dataset unavailable")
	ErrTimeout = errors.New("dataset timeout")
)

// RateLimitError reports how long the caller must wait before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Millisecond))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
