package domain

import (
	"context"
	"time"
)

// WindowProbe identifies the subject the user is currently engaged with.
// Implementations: X11 active-window lookup, busiest-process fallback.
type WindowProbe interface {
	// Name returns a short identifier for logs.
	Name() string

	// Probe returns the normalized subject name. ok is false when no
	// answer can be produced; the caller then holds the previous mode.
	Probe(ctx context.Context) (subject string, ok bool)
}

// EnforcementAction is one reversible side effect applied while distracted.
// Activate and Deactivate are idempotent: calling either twice leaves the
// same observable state as calling it once.
type EnforcementAction interface {
	// Name identifies the action in logs and status output.
	Name() string

	// Activate applies the side effect.
	Activate() error

	// Deactivate reverts the side effect.
	Deactivate() error

	// Active reports whether the action considers itself applied.
	Active() bool
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes whose name contains the pattern.
	FindByName(pattern string) ([]int, error)

	// Terminate asks a process to exit (SIGTERM).
	Terminate(pid int) error

	// BusiestProcess returns the lowercase name of the process with the
	// highest CPU share. Used as a probe fallback when no window system
	// answers.
	BusiestProcess() (string, error)
}

// SessionStore persists mode transitions.
type SessionStore interface {
	// Append durably writes one record.
	Append(rec LogRecord) error

	// Recent returns the newest n records, newest first.
	Recent(n int) ([]LogRecord, error)

	// Day returns all records of one local calendar day, oldest first.
	Day(date time.Time) ([]LogRecord, error)

	// AggregateFor computes productive totals for one local calendar day.
	// now bounds the trailing open span when the day is still in progress.
	AggregateFor(date time.Time, now time.Time) (DayStats, error)

	// Close releases the underlying database.
	Close() error
}

// KeyProvider abstracts the source of the session log encryption key.
// Implementations: OS keyring, file fallback.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// AutostartManager handles the desktop session autostart entry.
type AutostartManager interface {
	// Install writes the autostart entry pointing at execPath.
	Install(execPath string) error

	// Uninstall removes the autostart entry.
	Uninstall() error

	// IsInstalled checks if the autostart entry exists.
	IsInstalled() bool

	// EntryPath returns the autostart file path.
	EntryPath() string

	// NeedsUpdate checks if the entry exists but points at a different
	// executable than execPath.
	NeedsUpdate(execPath string) bool
}
