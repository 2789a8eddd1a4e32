package domain

import (
	"errors"
	"fmt"
)

// ErrorClass buckets non-fatal daemon errors for status reporting.
// Every class is recoverable: the daemon logs the error and keeps polling.
type ErrorClass string

const (
	// ErrorClassProbe: no probe strategy produced a subject this cycle.
	ErrorClassProbe ErrorClass = "probe_unavailable"

	// ErrorClassEnforcement: an action could not be applied or reverted.
	// Retried on the next cycle while the triggering mode persists.
	ErrorClassEnforcement ErrorClass = "enforcement_failed"

	// ErrorClassPersistence: a log record could not be written. The record
	// is queued and retried with backoff; the daemon reports degraded.
	ErrorClassPersistence ErrorClass = "persistence_failure"

	// ErrorClassConfig: the policy file failed to parse or validate.
	// The last known-good policy stays in effect.
	ErrorClassConfig ErrorClass = "config_invalid"
)

// Error tags an underlying failure with its class and the operation
// that produced it.
type Error struct {
	Class ErrorClass
	Op    string // e.g. "hosts.activate", "store.append"
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Class)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a class and operation name.
func E(class ErrorClass, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

// ClassOf extracts the class from a classified error chain.
func ClassOf(err error) (ErrorClass, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Class, true
	}
	return "", false
}
