// Package daemon runs the poll loop that drives classification and
// enforcement, and exposes the live status consumed by the control socket.
package daemon

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
	"github.com/Paarth01/Focus-Mode/internal/policy"
	"github.com/Paarth01/Focus-Mode/internal/usecase"
)

// Controller owns one daemon run: it re-reads policy, probes the active
// window, classifies it and feeds the result to the focus engine on a
// fixed cadence.
type Controller struct {
	loader  *policy.Loader
	probe   domain.WindowProbe
	engine  *usecase.Engine
	logger  *zap.Logger
	version string
	runID   string

	startedAt time.Time
}

// NewController creates a controller. The loader must have been loaded
// once already so the first tick starts from a valid poll interval.
func NewController(loader *policy.Loader, probe domain.WindowProbe, engine *usecase.Engine, version, runID string, logger *zap.Logger) *Controller {
	return &Controller{
		loader:    loader,
		probe:     probe,
		engine:    engine,
		logger:    logger,
		version:   version,
		runID:     runID,
		startedAt: time.Now(),
	}
}

// Run executes the poll loop until the context is canceled, then reverts
// all enforcement before returning. This blocks.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("daemon started",
		zap.Int("pid", os.Getpid()),
		zap.String("version", c.version),
		zap.String("run_id", c.runID))

	// First poll runs immediately so a fresh start reacts without waiting
	// out a full interval.
	c.tick(ctx, time.Now())

	interval := c.loader.Config().PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("daemon stopping")
			c.engine.Stop(time.Now())
			return nil

		case now := <-ticker.C:
			c.tick(ctx, now)

			if next := c.loader.Config().PollInterval; next != interval {
				c.logger.Info("poll interval changed",
					zap.Duration("from", interval),
					zap.Duration("to", next))
				interval = next
				ticker.Reset(next)
			}
		}
	}
}

// tick runs one poll cycle: reload policy, probe, classify, update engine.
func (c *Controller) tick(ctx context.Context, now time.Time) {
	if err := c.loader.Load(); err != nil {
		c.logger.Warn("policy reload failed, keeping previous", zap.Error(err))
		c.engine.OnConfigError(err, now)
	}

	subject, ok := c.probe.Probe(ctx)
	if !ok {
		c.engine.OnProbeFailure(now)
		return
	}

	cat := usecase.Classify(subject, c.loader.Policy())
	c.engine.OnClassified(cat, subject, now)
}

// Status composes the engine state with process-level identity.
func (c *Controller) Status() domain.Status {
	st := c.engine.State()
	return domain.Status{
		Running:     true,
		PID:         os.Getpid(),
		Version:     c.version,
		RunID:       c.runID,
		Mode:        st.Mode,
		Subject:     st.Subject,
		Since:       st.Since,
		StartedAt:   c.startedAt,
		Degraded:    st.Degraded,
		Enforcement: st.Enforcement,
		LastError:   st.LastError,
	}
}
