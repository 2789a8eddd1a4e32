package infra

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// hostsMarker tags every line this daemon writes to the hosts file so
// deactivation removes exactly what activation added, never user entries.
const hostsMarker = "# focusmoded"

// SiteSource returns the current blocked site list.
type SiteSource func() []string

// HostsBlock redirects blocked sites to a loopback address by appending
// marker-tagged lines to the hosts file.
type HostsBlock struct {
	path     string
	redirect string
	sites    SiteSource
	logger   *zap.Logger

	mu     sync.Mutex
	active bool
}

// NewHostsBlock creates the hosts-file action. sites is consulted on every
// activation so config edits take effect without a daemon restart.
func NewHostsBlock(path, redirect string, sites SiteSource, logger *zap.Logger) *HostsBlock {
	return &HostsBlock{path: path, redirect: redirect, sites: sites, logger: logger}
}

// Name identifies the action in logs and status output.
func (h *HostsBlock) Name() string { return "hosts" }

// Activate appends a tagged redirect line for each site not yet present.
// Already-present sites are left alone, so repeated activation never
// duplicates lines.
func (h *HostsBlock) Activate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sites := h.sites()
	if len(sites) == 0 {
		h.active = true
		return nil
	}

	err := h.rewrite(func(lines []string) ([]string, bool) {
		present := make(map[string]bool)
		for _, line := range lines {
			if host, ok := taggedHost(line); ok {
				present[host] = true
			}
		}

		changed := false
		for _, site := range sites {
			if present[site] {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s\t%s\t%s", h.redirect, site, hostsMarker))
			changed = true
		}
		return lines, changed
	})
	if err != nil {
		return domain.E(domain.ErrorClassEnforcement, "hosts.activate", err)
	}

	h.active = true
	h.logger.Info("hosts block active", zap.Int("sites", len(sites)))
	return nil
}

// Deactivate removes every tagged line, including leftovers from a previous
// run that exited uncleanly. Removing nothing is not an error.
func (h *HostsBlock) Deactivate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.rewrite(func(lines []string) ([]string, bool) {
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if isTagged(line) {
				continue
			}
			kept = append(kept, line)
		}
		return kept, len(kept) != len(lines)
	})
	if err != nil {
		return domain.E(domain.ErrorClassEnforcement, "hosts.deactivate", err)
	}

	h.active = false
	return nil
}

// Active reports whether the block is currently applied.
func (h *HostsBlock) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// rewrite applies fn to the hosts file lines under an exclusive lock and,
// when fn reports a change, replaces the file atomically. A no-op change
// skips the write entirely so deactivating a clean file needs no
// write permission.
func (h *HostsBlock) rewrite(fn func([]string) ([]string, bool)) error {
	lockFile, err := os.OpenFile(h.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	data, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", h.path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	out, changed := fn(lines)
	if !changed {
		return nil
	}

	return h.atomicWrite([]byte(strings.Join(out, "\n") + "\n"))
}

// atomicWrite replaces the hosts file via temp file and rename so readers
// never observe a partial write.
func (h *HostsBlock) atomicWrite(data []byte) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(h.path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", h.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, h.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

// isTagged reports whether the daemon wrote this line.
func isTagged(line string) bool {
	return strings.HasSuffix(strings.TrimSpace(line), hostsMarker)
}

// taggedHost returns the hostname of a tagged redirect line.
func taggedHost(line string) (string, bool) {
	if !isTagged(line) {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", false
	}
	return fields[1], true
}

// Ensure HostsBlock implements domain.EnforcementAction.
var _ domain.EnforcementAction = (*HostsBlock)(nil)
