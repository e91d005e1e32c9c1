package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrSyncAlreadyRunning = errors.New("workable candidate sync already running")
	ErrSyncRunNotFound    = errors.New("sync run not found")
	ErrSyncRunFinished    = errors.New("sync run already finished")
)

// TransportError is an upstream HTTP failure after retries were exhausted.
type TransportError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Status == 0 {
		return fmt.Sprintf("workable request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("workable api error: status %d body %s", e.Status, ellipsize(e.Body, 512))
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ellipsize cuts s to at most n runes, ending in "..." when shortened.
func ellipsize(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncateRunes(s, n-3) + "..."
}

// ThrottleError marks an HTTP 429 answer.
type ThrottleError struct {
	RetryAfter string
}

func (e *ThrottleError) Error() string {
	if e == nil {
		return ""
	}
	if e.RetryAfter != "" {
		return "workable rate limit hit (retry-after " + e.RetryAfter + ")"
	}
	return "workable rate limit hit"
}

// WriteBatchError records a failed reconciliation batch covering
// candidates[Start:End].
type WriteBatchError struct {
	Batch int
	Start int
	End   int
	Err   error
}

func (e *WriteBatchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("batch %d (candidates %d-%d) failed: %v", e.Batch, e.Start+1, e.End, e.Err)
}

func (e *WriteBatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigurationError means required settings are missing. No run is recorded.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return "workable integration not configured: missing " + strings.Join(e.Missing, ", ")
}

// DeletePhaseError means the bulk delete before a full replace failed.
type DeletePhaseError struct {
	Source string
	Err    error
}

func (e *DeletePhaseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("delete existing %s candidates: %v", e.Source, e.Err)
}

func (e *DeletePhaseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
