// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// hostsMarker matches the tag the daemon appends to its hosts entries.
const hostsMarker = "# focusmoded"

// FakeDesktop lays out config and data directories plus a private hosts
// file, so a daemon wired against it never touches the real system.
type FakeDesktop struct {
	BaseDir    string
	ConfigDir  string
	DataDir    string
	ConfigFile string
	SitesFile  string
	DBFile     string
	SocketPath string
	HostsFile  string
}

// NewFakeDesktop creates a fake desktop layout rooted at baseDir.
func NewFakeDesktop(baseDir string) *FakeDesktop {
	configDir := filepath.Join(baseDir, "config")
	dataDir := filepath.Join(baseDir, "data")
	return &FakeDesktop{
		BaseDir:    baseDir,
		ConfigDir:  configDir,
		DataDir:    dataDir,
		ConfigFile: filepath.Join(configDir, "config.yaml"),
		SitesFile:  filepath.Join(configDir, "blocked_sites.txt"),
		DBFile:     filepath.Join(dataDir, "focus_log.db"),
		SocketPath: filepath.Join(dataDir, "control.sock"),
		HostsFile:  filepath.Join(baseDir, "hosts"),
	}
}

// Create builds the directory tree with a working configuration, a site
// list and a hosts file seeded with one user entry.
func (f *FakeDesktop) Create() error {
	for _, dir := range []string{f.ConfigDir, f.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	config := fmt.Sprintf(`productive_apps:
  - code
distracting_apps:
  - firefox
  - vlc
poll_interval_seconds: 1
hosts_file: %s
redirect_ip: 127.0.0.1
`, f.HostsFile)
	if err := os.WriteFile(f.ConfigFile, []byte(config), 0644); err != nil {
		return err
	}

	sites := "youtube.com\nreddit.com\n"
	if err := os.WriteFile(f.SitesFile, []byte(sites), 0644); err != nil {
		return err
	}

	return os.WriteFile(f.HostsFile, []byte("127.0.0.1\tlocalhost\n"), 0644)
}

// HostsRedirects reports whether the daemon currently redirects site.
func (f *FakeDesktop) HostsRedirects(site string) bool {
	for _, line := range f.hostsLines() {
		if strings.HasSuffix(strings.TrimSpace(line), hostsMarker) && strings.Contains(line, site) {
			return true
		}
	}
	return false
}

// HostsClean reports whether no daemon entries remain in the hosts file.
func (f *FakeDesktop) HostsClean() bool {
	for _, line := range f.hostsLines() {
		if strings.HasSuffix(strings.TrimSpace(line), hostsMarker) {
			return false
		}
	}
	return true
}

func (f *FakeDesktop) hostsLines() []string {
	data, err := os.ReadFile(f.HostsFile)
	if err != nil {
		return nil
	}
	return strings.Split(string(data), "\n")
}
