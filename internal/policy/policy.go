// Package policy loads and validates the daemon configuration: the
// classification lists, the blocked site list, and daemon tuning.
package policy

import "time"

// Defaults applied when the config file is missing or a key is absent.
const (
	DefaultFocusMinutes = 120
	DefaultPollSeconds  = 3
	DefaultProbeSeconds = 1
	DefaultHostsFile    = "/etc/hosts"
	DefaultRedirectIP   = "127.0.0.1"
	DefaultLogLevel     = "info"
)

// Config is the full daemon configuration. Structural fields are read once
// at daemon startup; the classification policy is re-read every poll cycle.
type Config struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration
	HostsFile    string
	RedirectIP   string
	EncryptLog   bool
	LogLevel     string
}

// DefaultConfig returns the configuration used before any file is read.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollSeconds * time.Second,
		ProbeTimeout: DefaultProbeSeconds * time.Second,
		HostsFile:    DefaultHostsFile,
		RedirectIP:   DefaultRedirectIP,
		EncryptLog:   false,
		LogLevel:     DefaultLogLevel,
	}
}
