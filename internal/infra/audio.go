package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

const defaultSink = "@DEFAULT_SINK@"

// AudioMute silences the default PulseAudio sink while distracted.
// The sink's prior mute state is captured on activation and restored on
// deactivation; when capture failed, deactivation forces unmute.
type AudioMute struct {
	runner  CommandRunner
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	active     bool
	priorKnown bool
	priorMuted bool
}

// NewAudioMute creates the audio action.
func NewAudioMute(runner CommandRunner, timeout time.Duration, logger *zap.Logger) *AudioMute {
	return &AudioMute{runner: runner, timeout: timeout, logger: logger}
}

// Name identifies the action in logs and status output.
func (a *AudioMute) Name() string { return "audio" }

// Activate mutes the default sink. A second activation is a no-op so the
// captured prior state is never overwritten with our own mute.
func (a *AudioMute) Activate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	out, err := a.runner.Output(ctx, "pactl", "get-sink-mute", defaultSink)
	if err == nil {
		a.priorMuted = strings.Contains(string(out), "yes")
		a.priorKnown = true
	} else {
		a.priorKnown = false
		a.logger.Debug("could not read sink mute state", zap.Error(err))
	}

	if err := a.runner.Run(ctx, "pactl", "set-sink-mute", defaultSink, "1"); err != nil {
		return domain.E(domain.ErrorClassEnforcement, "audio.activate", err)
	}

	a.active = true
	return nil
}

// Deactivate restores the sink to its captured state, or unmutes when no
// state was captured. It does not consult the active flag: stop cleanup
// must revert even when bookkeeping is stale.
func (a *AudioMute) Deactivate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	target := "0"
	if a.priorKnown && a.priorMuted {
		target = "1"
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.runner.Run(ctx, "pactl", "set-sink-mute", defaultSink, target); err != nil {
		return domain.E(domain.ErrorClassEnforcement, "audio.deactivate", err)
	}

	a.active = false
	a.priorKnown = false
	return nil
}

// Active reports whether the mute is currently applied.
func (a *AudioMute) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Ensure AudioMute implements domain.EnforcementAction.
var _ domain.EnforcementAction = (*AudioMute)(nil)
