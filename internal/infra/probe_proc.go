package infra

import (
	"context"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// ProcessProbe guesses the active subject from CPU usage when no window
// system answers (headless session, Wayland without XWayland tools).
type ProcessProbe struct {
	pm     domain.ProcessManager
	logger *zap.Logger
}

// NewProcessProbe creates the busiest-process fallback probe.
func NewProcessProbe(pm domain.ProcessManager, logger *zap.Logger) *ProcessProbe {
	return &ProcessProbe{pm: pm, logger: logger}
}

// Name returns a short identifier for logs.
func (p *ProcessProbe) Name() string { return "proc" }

// Probe returns the name of the process with the highest CPU share.
func (p *ProcessProbe) Probe(ctx context.Context) (string, bool) {
	name, err := p.pm.BusiestProcess()
	if err != nil {
		p.logger.Debug("process scan failed", zap.Error(err))
		return "", false
	}
	return name, true
}

// Ensure ProcessProbe implements domain.WindowProbe.
var _ domain.WindowProbe = (*ProcessProbe)(nil)
