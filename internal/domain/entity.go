// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Mode is the daemon's focus state at a point in time.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeProductive Mode = "productive"
	ModeDistracted Mode = "distracted"
	ModeNeutral    Mode = "neutral"
)

// Category classifies a single observed subject against the policy.
type Category string

const (
	CategoryProductive  Category = "productive"
	CategoryDistracting Category = "distracting"
	CategoryNeutral     Category = "neutral"
)

// Mode maps a classification to the focus mode it drives.
func (c Category) Mode() Mode {
	switch c {
	case CategoryProductive:
		return ModeProductive
	case CategoryDistracting:
		return ModeDistracted
	default:
		return ModeNeutral
	}
}

// Policy defines how observed subjects are classified.
// Loaded from the user's config file and re-read every poll cycle.
type Policy struct {
	ProductiveApps  []string      // Lowercase substrings that count as productive
	DistractingApps []string      // Lowercase substrings that trigger enforcement
	FocusTarget     time.Duration // Daily productive-time goal
}

// LogRecord is one persisted mode transition.
type LogRecord struct {
	ID        int64
	RunID     string // Daemon run that wrote the record
	AppName   string // Subject that triggered the transition, empty on stop
	Mode      Mode
	Timestamp time.Time
}

// DayStats aggregates one local calendar day of the session log.
type DayStats struct {
	Date       string // YYYY-MM-DD
	Productive time.Duration
	Sessions   int // Completed productive spans
	Records    int
}

// ErrorInfo is the most recent classified daemon error, surfaced via status.
type ErrorInfo struct {
	Class   ErrorClass `json:"class"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// Status is the live daemon state reported over the control socket.
type Status struct {
	Running     bool            `json:"running"`
	PID         int             `json:"pid"`
	Version     string          `json:"version"`
	RunID       string          `json:"run_id"`
	Mode        Mode            `json:"mode"`
	Subject     string          `json:"subject,omitempty"`
	Since       time.Time       `json:"since"`      // When the current mode was entered
	StartedAt   time.Time       `json:"started_at"` // When the daemon process started
	Degraded    bool            `json:"degraded"`   // Log records are pending retry
	Enforcement map[string]bool `json:"enforcement"`
	LastError   *ErrorInfo      `json:"last_error,omitempty"`
}
