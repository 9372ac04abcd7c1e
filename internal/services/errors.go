package services

import (
	"errors"
	"time"
)

// Typed failures surfaced to callers. Anything else coming out of a service is
// an opaque backend fault and should be treated as "try again later".
var (
	ErrInvalidContent        = errors.New("content must be 1-1000 characters")
	ErrInvalidLocation       = errors.New("invalid location")
	ErrInvalidReaction       = errors.New("invalid reaction kind")
	ErrInvalidReason         = errors.New("invalid report reason")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrTooManyReports        = errors.New("too many reports")
	ErrNotFound              = errors.New("message not found")
	ErrExpired               = errors.New("message expired")
	ErrNotApproved           = errors.New("message not approved")
	ErrRecordNotFound        = errors.New("moderation record not found")
	ErrReportNotFound        = errors.New("report not found")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// RateLimitError wraps a rate-limit sentinel with the time remaining until
// the window resets, so the transport can emit a Retry-After header.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Err.Error() }

func (e *RateLimitError) Unwrap() error { return e.Err }
