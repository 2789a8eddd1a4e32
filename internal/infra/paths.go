package infra

import (
	"os"
	"path/filepath"
)

const appDirName = "focusmoded"

// Paths holds the filesystem layout of the daemon.
// Config lives under XDG config, mutable state under XDG data.
type Paths struct {
	ConfigDir  string // Policy file and blocked site list
	DataDir    string // Session log, control socket, daemon log
	ConfigFile string
	SitesFile  string
	DBFile     string
	KeyFile    string
	SocketPath string
	LogFile    string
}

// DefaultPaths resolves the daemon's directories. FOCUSMODED_CONFIG_DIR and
// FOCUSMODED_DATA_DIR override the XDG locations, mainly for tests.
func DefaultPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := os.Getenv("FOCUSMODED_CONFIG_DIR")
	if configDir == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, appDirName)
		} else {
			configDir = filepath.Join(home, ".config", appDirName)
		}
	}

	dataDir := os.Getenv("FOCUSMODED_DATA_DIR")
	if dataDir == "" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dataDir = filepath.Join(xdg, appDirName)
		} else {
			dataDir = filepath.Join(home, ".local", "share", appDirName)
		}
	}

	return PathsIn(configDir, dataDir)
}

// PathsIn builds the layout rooted at explicit directories (for tests).
func PathsIn(configDir, dataDir string) Paths {
	return Paths{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		ConfigFile: filepath.Join(configDir, "config.yaml"),
		SitesFile:  filepath.Join(configDir, "blocked_sites.txt"),
		DBFile:     filepath.Join(dataDir, "focus_log.db"),
		KeyFile:    filepath.Join(dataDir, ".db_key"),
		SocketPath: filepath.Join(dataDir, "control.sock"),
		LogFile:    filepath.Join(dataDir, "focusmoded.log"),
	}
}

// EnsureDirs creates the config and data directories. The data directory is
// private: it holds the session log and the control socket.
func (p Paths) EnsureDirs() error {
	if err := os.MkdirAll(p.ConfigDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(p.DataDir, 0700)
}
