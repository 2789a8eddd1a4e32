package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// Desktop entry template for XDG autostart.
const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name=Focus Mode Daemon
Comment=Monitors the active app and enforces focus policy
Exec={{.ExecutablePath}} run
Terminal=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`

const desktopEntryName = "focusmoded.desktop"

type desktopConfig struct {
	ExecutablePath string
}

// XDGAutostart implements domain.AutostartManager with a desktop entry in
// the session autostart directory. Desktop entries are declarative:
// enabling means writing the file, disabling means removing it.
type XDGAutostart struct {
	dir  string
	path string
}

// NewXDGAutostart creates a manager for the standard autostart directory.
func NewXDGAutostart() *XDGAutostart {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, ".config", "autostart")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "autostart")
	}
	return NewXDGAutostartAt(dir)
}

// NewXDGAutostartAt creates a manager rooted at a specific directory (for tests).
func NewXDGAutostartAt(dir string) *XDGAutostart {
	return &XDGAutostart{dir: dir, path: filepath.Join(dir, desktopEntryName)}
}

// Install writes the autostart entry pointing at execPath.
func (m *XDGAutostart) Install(execPath string) error {
	content, err := renderDesktopEntry(execPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	if err := os.WriteFile(m.path, content, 0644); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

// Uninstall removes the autostart entry.
func (m *XDGAutostart) Uninstall() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove autostart entry: %w", err)
	}
	return nil
}

// IsInstalled checks if the autostart entry exists.
func (m *XDGAutostart) IsInstalled() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// EntryPath returns the autostart file path.
func (m *XDGAutostart) EntryPath() string {
	return m.path
}

// NeedsUpdate checks if the entry exists but was written for a different
// executable path (e.g. the binary moved).
func (m *XDGAutostart) NeedsUpdate(execPath string) bool {
	existing, err := os.ReadFile(m.path)
	if err != nil {
		return false
	}
	expected, err := renderDesktopEntry(execPath)
	if err != nil {
		return false
	}
	return !bytes.Equal(existing, expected)
}

func renderDesktopEntry(execPath string) ([]byte, error) {
	tmpl, err := template.New("desktop").Parse(desktopEntryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse desktop template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, desktopConfig{ExecutablePath: execPath}); err != nil {
		return nil, fmt.Errorf("failed to render desktop entry: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure XDGAutostart implements domain.AutostartManager.
var _ domain.AutostartManager = (*XDGAutostart)(nil)
