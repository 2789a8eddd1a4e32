package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// Loader reads the config and site files. Parse or validation failures keep
// the last known-good state in effect, so a half-edited config can never
// strip enforcement mid-session.
type Loader struct {
	configFile string
	sitesFile  string
	logger     *zap.Logger

	mu     sync.RWMutex
	policy domain.Policy
	config Config
	sites  []string
}

// NewLoader creates a loader for the given file paths.
func NewLoader(configFile, sitesFile string, logger *zap.Logger) *Loader {
	return &Loader{
		configFile: configFile,
		sitesFile:  sitesFile,
		logger:     logger,
		config:     DefaultConfig(),
	}
}

// Load reads both files and swaps in the new state. A missing config file
// is not an error: the daemon runs on defaults until one is written.
func (l *Loader) Load() error {
	pol, cfg, err := l.readConfig()
	if err != nil {
		return domain.E(domain.ErrorClassConfig, "policy.load", err)
	}

	sites, sitesErr := l.readSites()

	l.mu.Lock()
	l.policy = pol
	l.config = cfg
	if sitesErr == nil {
		l.sites = sites
	}
	l.mu.Unlock()

	if sitesErr != nil {
		l.logger.Warn("site list unreadable, keeping previous", zap.Error(sitesErr))
	}
	return nil
}

func (l *Loader) readConfig() (domain.Policy, Config, error) {
	v := viper.New()
	v.SetConfigFile(l.configFile)
	v.SetConfigType("yaml")

	v.SetDefault("focus_duration_minutes", DefaultFocusMinutes)
	v.SetDefault("poll_interval_seconds", DefaultPollSeconds)
	v.SetDefault("probe_timeout_seconds", DefaultProbeSeconds)
	v.SetDefault("hosts_file", DefaultHostsFile)
	v.SetDefault("redirect_ip", DefaultRedirectIP)
	v.SetDefault("encrypt_log", false)
	v.SetDefault("log_level", DefaultLogLevel)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Policy{}, Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		l.logger.Debug("config file missing, using defaults", zap.String("path", l.configFile))
	}

	cfg := Config{
		PollInterval: time.Duration(v.GetInt("poll_interval_seconds")) * time.Second,
		ProbeTimeout: time.Duration(v.GetInt("probe_timeout_seconds")) * time.Second,
		HostsFile:    v.GetString("hosts_file"),
		RedirectIP:   v.GetString("redirect_ip"),
		EncryptLog:   v.GetBool("encrypt_log"),
		LogLevel:     v.GetString("log_level"),
	}

	pol := domain.Policy{
		ProductiveApps:  normalizeList(v.GetStringSlice("productive_apps")),
		DistractingApps: normalizeList(v.GetStringSlice("distracting_apps")),
		FocusTarget:     time.Duration(v.GetInt("focus_duration_minutes")) * time.Minute,
	}

	if err := validate(pol, cfg); err != nil {
		return domain.Policy{}, Config{}, err
	}

	for _, name := range overlap(pol.ProductiveApps, pol.DistractingApps) {
		l.logger.Warn("app listed as both productive and distracting, productive wins",
			zap.String("app", name))
	}

	return pol, cfg, nil
}

func (l *Loader) readSites() ([]string, error) {
	f, err := os.Open(l.sitesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseSites(f)
}

// Policy returns the last good classification policy.
func (l *Loader) Policy() domain.Policy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p := l.policy
	p.ProductiveApps = append([]string(nil), p.ProductiveApps...)
	p.DistractingApps = append([]string(nil), p.DistractingApps...)
	return p
}

// Config returns the last good daemon configuration.
func (l *Loader) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Sites returns the last good blocked site list.
func (l *Loader) Sites() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.sites...)
}

// DistractingApps returns the distracting patterns for the process
// termination action.
func (l *Loader) DistractingApps() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.policy.DistractingApps...)
}

func validate(pol domain.Policy, cfg Config) error {
	if pol.FocusTarget < 0 {
		return fmt.Errorf("focus_duration_minutes must not be negative")
	}
	if cfg.PollInterval < time.Second {
		return fmt.Errorf("poll_interval_seconds must be at least 1")
	}
	if cfg.ProbeTimeout < time.Second {
		return fmt.Errorf("probe_timeout_seconds must be at least 1")
	}
	if cfg.HostsFile == "" {
		return fmt.Errorf("hosts_file must not be empty")
	}
	if net.ParseIP(cfg.RedirectIP) == nil {
		return fmt.Errorf("redirect_ip %q is not a valid IP address", cfg.RedirectIP)
	}
	return nil
}

func overlap(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	var both []string
	for _, s := range b {
		if inA[s] {
			both = append(both, s)
		}
	}
	return both
}
