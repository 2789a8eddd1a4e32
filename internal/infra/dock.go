package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

const (
	dockSchema = "org.gnome.shell.extensions.dash-to-dock"
	dockKey    = "autohide"
)

// DockHide hides the GNOME dock while distracted by enabling dash-to-dock
// autohide. The prior setting is captured on activation and restored on
// deactivation; when capture failed, deactivation shows the dock again.
type DockHide struct {
	runner  CommandRunner
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	active      bool
	priorKnown  bool
	priorHidden bool
}

// NewDockHide creates the dock visibility action.
func NewDockHide(runner CommandRunner, timeout time.Duration, logger *zap.Logger) *DockHide {
	return &DockHide{runner: runner, timeout: timeout, logger: logger}
}

// Name identifies the action in logs and status output.
func (d *DockHide) Name() string { return "dock" }

// Activate enables autohide. A second activation is a no-op so the captured
// prior state is never overwritten with our own setting.
func (d *DockHide) Activate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	out, err := d.runner.Output(ctx, "gsettings", "get", dockSchema, dockKey)
	if err == nil {
		d.priorHidden = strings.TrimSpace(string(out)) == "true"
		d.priorKnown = true
	} else {
		d.priorKnown = false
		d.logger.Debug("could not read dock setting", zap.Error(err))
	}

	if err := d.runner.Run(ctx, "gsettings", "set", dockSchema, dockKey, "true"); err != nil {
		return domain.E(domain.ErrorClassEnforcement, "dock.activate", err)
	}

	d.active = true
	return nil
}

// Deactivate restores the captured autohide setting, or shows the dock
// when no state was captured. It does not consult the active flag: stop
// cleanup must revert even when bookkeeping is stale.
func (d *DockHide) Deactivate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := "false"
	if d.priorKnown && d.priorHidden {
		target = "true"
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.runner.Run(ctx, "gsettings", "set", dockSchema, dockKey, target); err != nil {
		return domain.E(domain.ErrorClassEnforcement, "dock.deactivate", err)
	}

	d.active = false
	d.priorKnown = false
	return nil
}

// Active reports whether the dock is currently hidden by this action.
func (d *DockHide) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Ensure DockHide implements domain.EnforcementAction.
var _ domain.EnforcementAction = (*DockHide)(nil)
