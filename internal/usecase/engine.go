package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// Backoff bounds for retrying failed session log appends.
const (
	retryBaseDelay = time.Second
	retryMaxDelay  = 30 * time.Second
)

// Engine is the focus state machine. It owns the current mode, decides
// which enforcement actions run, and emits one log record per mode change.
// All entry points are serialized by an internal mutex; the poll loop is
// the only steady caller, with Stop arriving from the control surface.
type Engine struct {
	actions []domain.EnforcementAction
	store   domain.SessionStore
	logger  *zap.Logger
	runID   string

	mu      sync.Mutex
	mode    domain.Mode
	since   time.Time
	subject string

	probeDown bool

	pending    []domain.LogRecord
	retryAt    time.Time
	retryDelay time.Duration
	lastErr    *domain.ErrorInfo
}

// State is the machine's observable state, reported via status.
type State struct {
	Mode        domain.Mode
	Since       time.Time
	Subject     string
	Enforcement map[string]bool
	Degraded    bool
	LastError   *domain.ErrorInfo
}

// NewEngine creates the state machine in Idle mode.
func NewEngine(actions []domain.EnforcementAction, store domain.SessionStore, runID string, logger *zap.Logger) *Engine {
	return &Engine{
		actions: actions,
		store:   store,
		logger:  logger,
		runID:   runID,
		mode:    domain.ModeIdle,
		since:   time.Now(),
	}
}

// OnClassified consumes one poll's classification. A category equal to the
// current mode is coalesced: no record is written, but enforcement still
// reconverges (failed actions retry, the kill sweep repeats).
func (e *Engine) OnClassified(cat domain.Category, subject string, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.flushPendingLocked(at)
	e.probeDown = false

	if next := cat.Mode(); next != e.mode {
		e.transitionLocked(next, subject, at)
	}
	e.subject = subject
	e.reconcileLocked(at)
}

// OnProbeFailure holds the current mode rather than guessing neutral, so a
// transient probe glitch never unblocks a distracted session.
func (e *Engine) OnProbeFailure(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.flushPendingLocked(at)
	e.recordErrorLocked(domain.E(domain.ErrorClassProbe, "probe", nil), at)

	if !e.probeDown {
		e.probeDown = true
		e.logger.Warn("window probe unavailable, holding mode", zap.String("mode", string(e.mode)))
	} else {
		e.logger.Debug("window probe still unavailable")
	}

	e.reconcileLocked(at)
}

// OnConfigError surfaces a failed policy reload in status. The previous
// policy keeps driving classification, so no mode change happens here.
func (e *Engine) OnConfigError(err error, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.recordErrorLocked(err, at)
}

// Stop forces Idle and reverts every action regardless of bookkeeping, so
// no enforcement survives a stopped daemon.
func (e *Engine) Stop(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.flushPendingLocked(at)

	if e.mode != domain.ModeIdle {
		e.transitionLocked(domain.ModeIdle, "", at)
	}

	for _, a := range e.actions {
		if err := a.Deactivate(); err != nil {
			e.recordErrorLocked(err, at)
			e.logger.Error("cleanup failed", zap.String("action", a.Name()), zap.Error(err))
		}
	}
}

// State reports the machine's current state for status queries.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	enf := make(map[string]bool, len(e.actions))
	for _, a := range e.actions {
		enf[a.Name()] = a.Active()
	}

	var lastErr *domain.ErrorInfo
	if e.lastErr != nil {
		cp := *e.lastErr
		lastErr = &cp
	}

	return State{
		Mode:        e.mode,
		Since:       e.since,
		Subject:     e.subject,
		Enforcement: enf,
		Degraded:    len(e.pending) > 0,
		LastError:   lastErr,
	}
}

// transitionLocked swaps the mode and emits one log record.
func (e *Engine) transitionLocked(next domain.Mode, subject string, at time.Time) {
	prev := e.mode
	e.mode = next
	e.since = at

	e.logger.Info("mode transition",
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("subject", subject))

	e.appendLocked(domain.LogRecord{
		RunID:     e.runID,
		AppName:   subject,
		Mode:      next,
		Timestamp: at,
	})
}

// reconcileLocked drives actions toward the current mode. Distracted
// re-activates every action each cycle: retries cover earlier failures,
// the kill sweep catches freshly launched processes, and the hosts file
// picks up site list edits. Outside Distracted only still-active actions
// are touched, so a settled state costs nothing per tick.
func (e *Engine) reconcileLocked(at time.Time) {
	switch e.mode {
	case domain.ModeDistracted:
		for _, a := range e.actions {
			if err := a.Activate(); err != nil {
				e.recordErrorLocked(err, at)
				e.logger.Warn("enforcement activate failed",
					zap.String("action", a.Name()), zap.Error(err))
			}
		}
	case domain.ModeProductive, domain.ModeNeutral:
		for _, a := range e.actions {
			if !a.Active() {
				continue
			}
			if err := a.Deactivate(); err != nil {
				e.recordErrorLocked(err, at)
				e.logger.Warn("enforcement deactivate failed",
					zap.String("action", a.Name()), zap.Error(err))
			}
		}
	}
}

// appendLocked writes a record, queueing it when the store is unavailable.
// New records queue behind waiting ones so append order is preserved.
func (e *Engine) appendLocked(rec domain.LogRecord) {
	if len(e.pending) > 0 {
		e.pending = append(e.pending, rec)
		return
	}
	if err := e.store.Append(rec); err != nil {
		e.pending = append(e.pending, rec)
		e.retryDelay = retryBaseDelay
		e.retryAt = rec.Timestamp.Add(e.retryDelay)
		e.recordErrorLocked(err, rec.Timestamp)
		e.logger.Error("session log append failed, queued for retry", zap.Error(err))
	}
}

// flushPendingLocked retries queued appends with exponential backoff.
func (e *Engine) flushPendingLocked(at time.Time) {
	if len(e.pending) == 0 || at.Before(e.retryAt) {
		return
	}

	for len(e.pending) > 0 {
		if err := e.store.Append(e.pending[0]); err != nil {
			e.retryDelay *= 2
			if e.retryDelay > retryMaxDelay {
				e.retryDelay = retryMaxDelay
			}
			e.retryAt = at.Add(e.retryDelay)
			e.recordErrorLocked(err, at)
			e.logger.Warn("session log retry failed",
				zap.Int("pending", len(e.pending)),
				zap.Duration("next_retry_in", e.retryDelay),
				zap.Error(err))
			return
		}
		e.pending = e.pending[1:]
	}

	e.retryDelay = 0
	e.logger.Info("session log drained after retry")
}

func (e *Engine) recordErrorLocked(err error, at time.Time) {
	info := domain.ErrorInfo{Message: err.Error(), At: at}
	if class, ok := domain.ClassOf(err); ok {
		info.Class = class
	}
	e.lastErr = &info
}
