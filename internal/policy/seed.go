package policy

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default config written by `focusmoded init`. The daemon re-reads the file
// every poll cycle, so edits apply without a restart.
const defaultConfigYAML = `# focusmoded configuration
# Edits apply live: the daemon re-reads this file every poll cycle.

# Daily productive-time goal in minutes.
focus_duration_minutes: 120

# Apps counted as productive (case-insensitive substring match on the
# active window class). Checked before distracting_apps.
productive_apps:
  - code
  - libreoffice
  - gedit
  - google-docs
  - gnome-terminal

# Apps that trigger enforcement while focused on them.
distracting_apps:
  - firefox
  - chrome
  - vlc
  - spotify
  - youtube

# Seconds between polls.
poll_interval_seconds: 3

# Seconds before a window probe attempt is abandoned.
probe_timeout_seconds: 1

# Name resolution override file used for site blocking.
hosts_file: /etc/hosts
redirect_ip: 127.0.0.1

# Encrypt the session log with SQLCipher. The key lives in the OS keyring,
# with a file fallback. Leave off to keep the log readable by external
# analysis tools.
encrypt_log: false

# debug, info, warn or error.
log_level: info
`

const defaultSitesList = `# Sites redirected to the loopback address while distracted.
# One hostname per line.
youtube.com
www.youtube.com
netflix.com
www.netflix.com
reddit.com
www.reddit.com
`

// WriteDefaults seeds the config and site files. Existing files are left
// alone unless force is set.
func WriteDefaults(configFile, sitesFile string, force bool) error {
	if err := writeSeed(configFile, defaultConfigYAML, force); err != nil {
		return err
	}
	return writeSeed(sitesFile, defaultSitesList, force)
}

func writeSeed(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
