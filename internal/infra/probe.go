package infra

import (
	"context"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// ProbeChain tries each probe in order and returns the first answer.
// All strategies failing in one cycle means the subject is unknown and
// the caller holds the previous mode.
type ProbeChain struct {
	probes []domain.WindowProbe
}

// NewProbeChain creates a probe that falls through the given strategies.
func NewProbeChain(probes ...domain.WindowProbe) *ProbeChain {
	return &ProbeChain{probes: probes}
}

// Name returns a short identifier for logs.
func (c *ProbeChain) Name() string { return "chain" }

// Probe returns the first successful strategy's subject.
func (c *ProbeChain) Probe(ctx context.Context) (string, bool) {
	for _, p := range c.probes {
		if subject, ok := p.Probe(ctx); ok {
			return subject, true
		}
	}
	return "", false
}

// Ensure ProbeChain implements domain.WindowProbe.
var _ domain.WindowProbe = (*ProbeChain)(nil)
