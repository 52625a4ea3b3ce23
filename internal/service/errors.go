package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput is matched by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrThrottled is matched by every ThrottleError.
	ErrThrottled = errors.New("submitted too soon")

	// ErrProcessing is the generic failure surfaced to callers when
	// extraction, assembly or the task hand-off fails.
	ErrProcessing = errors.New("failed to process input")
)

// ValidationError carries every message the input validator produced.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Errors, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ThrottleError is a deferred-retry signal, not a failure.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrThrottled, e.RetryAfter)
}

func (e *ThrottleError) Is(target error) bool {
	return target == ErrThrottled
}

// RetryAfterSeconds rounds up to whole seconds.
func (e *ThrottleError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
