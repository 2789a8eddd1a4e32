package infra

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// PatternSource returns the current process name patterns to terminate.
type PatternSource func() []string

// ProcessKill terminates running processes that match the distracting app
// patterns. SIGTERM is best effort: the poll loop re-activates the action
// every distracted cycle, sweeping again for survivors and new launches.
// Deactivation only disarms; terminated processes stay terminated.
type ProcessKill struct {
	pm       domain.ProcessManager
	patterns PatternSource
	logger   *zap.Logger

	mu     sync.Mutex
	active bool
}

// NewProcessKill creates the process termination action.
func NewProcessKill(pm domain.ProcessManager, patterns PatternSource, logger *zap.Logger) *ProcessKill {
	return &ProcessKill{pm: pm, patterns: patterns, logger: logger}
}

// Name identifies the action in logs and status output.
func (k *ProcessKill) Name() string { return "kill" }

// Activate sweeps every matching process once. Failures on individual PIDs
// are logged rather than returned; the next cycle retries them.
func (k *ProcessKill) Activate() error {
	k.mu.Lock()
	k.active = true
	k.mu.Unlock()

	self := os.Getpid()
	for _, pattern := range k.patterns() {
		pids, err := k.pm.FindByName(pattern)
		if err != nil {
			return domain.E(domain.ErrorClassEnforcement, "kill.activate", err)
		}
		for _, pid := range pids {
			if pid == self {
				continue
			}
			if err := k.pm.Terminate(pid); err != nil {
				k.logger.Warn("terminate failed",
					zap.Int("pid", pid), zap.String("pattern", pattern), zap.Error(err))
				continue
			}
			k.logger.Info("terminated distracting process",
				zap.Int("pid", pid), zap.String("pattern", pattern))
		}
	}
	return nil
}

// Deactivate disarms the sweep.
func (k *ProcessKill) Deactivate() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.active = false
	return nil
}

// Active reports whether the sweep is armed.
func (k *ProcessKill) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

// Ensure ProcessKill implements domain.EnforcementAction.
var _ domain.EnforcementAction = (*ProcessKill)(nil)
