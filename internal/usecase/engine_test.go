package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// mockAction implements domain.EnforcementAction for testing
type mockAction struct {
	name          string
	active        bool
	activateErr   error
	deactivateErr error
	activations   int
	deactivations int
}

func (m *mockAction) Name() string { return m.name }

func (m *mockAction) Activate() error {
	m.activations++
	if m.activateErr != nil {
		return domain.E(domain.ErrorClassEnforcement, m.name+".activate", m.activateErr)
	}
	m.active = true
	return nil
}

func (m *mockAction) Deactivate() error {
	m.deactivations++
	if m.deactivateErr != nil {
		return domain.E(domain.ErrorClassEnforcement, m.name+".deactivate", m.deactivateErr)
	}
	m.active = false
	return nil
}

func (m *mockAction) Active() bool { return m.active }

// mockStore implements domain.SessionStore for testing
type mockStore struct {
	records   []domain.LogRecord
	appendErr error
}

func (m *mockStore) Append(rec domain.LogRecord) error {
	if m.appendErr != nil {
		return domain.E(domain.ErrorClassPersistence, "store.append", m.appendErr)
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockStore) Recent(n int) ([]domain.LogRecord, error) { return nil, nil }

func (m *mockStore) Day(date time.Time) ([]domain.LogRecord, error) { return nil, nil }

func (m *mockStore) Close() error { return nil }

func (m *mockStore) AggregateFor(date, now time.Time) (domain.DayStats, error) {
	return domain.DayStats{}, nil
}

var baseTime = time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * 3 * time.Second)
}

func modesOf(recs []domain.LogRecord) []domain.Mode {
	modes := make([]domain.Mode, len(recs))
	for i, rec := range recs {
		modes[i] = rec.Mode
	}
	return modes
}

func TestEngine_CoalescesRepeatedClassifications(t *testing.T) {
	store := &mockStore{}
	e := NewEngine(nil, store, "run-1", zap.NewNop())

	// productive, productive, distracted, productive
	e.OnClassified(domain.CategoryProductive, "code", tick(0))
	e.OnClassified(domain.CategoryProductive, "code", tick(1))
	e.OnClassified(domain.CategoryDistracting, "firefox", tick(2))
	e.OnClassified(domain.CategoryProductive, "code", tick(3))

	require.Len(t, store.records, 3)
	assert.Equal(t, []domain.Mode{
		domain.ModeProductive,
		domain.ModeDistracted,
		domain.ModeProductive,
	}, modesOf(store.records))
	assert.Equal(t, "firefox", store.records[1].AppName)
	assert.Equal(t, "run-1", store.records[0].RunID)
}

func TestEngine_DistractedActivatesEveryCycle(t *testing.T) {
	hosts := &mockAction{name: "hosts"}
	kill := &mockAction{name: "kill"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts, kill}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	e.OnClassified(domain.CategoryDistracting, "youtube", tick(1))

	// Re-activation every distracted cycle keeps the kill sweep running
	// and retries anything that failed.
	assert.Equal(t, 2, hosts.activations)
	assert.Equal(t, 2, kill.activations)
	assert.True(t, hosts.Active())
	require.Len(t, store.records, 1)
}

func TestEngine_LeavingDistractedDeactivates(t *testing.T) {
	hosts := &mockAction{name: "hosts"}
	audio := &mockAction{name: "audio"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts, audio}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	e.OnClassified(domain.CategoryNeutral, "nautilus", tick(1))

	assert.False(t, hosts.Active())
	assert.False(t, audio.Active())
	assert.Equal(t, 1, hosts.deactivations)

	// Settled non-distracted state touches nothing.
	e.OnClassified(domain.CategoryNeutral, "nautilus", tick(2))
	assert.Equal(t, 1, hosts.deactivations)

	assert.Equal(t, []domain.Mode{
		domain.ModeDistracted,
		domain.ModeNeutral,
	}, modesOf(store.records))
}

func TestEngine_StopForcesFullCleanup(t *testing.T) {
	hosts := &mockAction{name: "hosts"}
	audio := &mockAction{name: "audio"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts, audio}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	e.Stop(tick(1))

	st := e.State()
	assert.Equal(t, domain.ModeIdle, st.Mode)
	for name, active := range st.Enforcement {
		assert.False(t, active, "action %s still active after stop", name)
	}

	last := store.records[len(store.records)-1]
	assert.Equal(t, domain.ModeIdle, last.Mode)
	assert.Equal(t, "", last.AppName)
}

func TestEngine_StopWhenIdleRevertsWithoutRecord(t *testing.T) {
	hosts := &mockAction{name: "hosts"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts}, store, "run-1", zap.NewNop())

	e.Stop(tick(0))

	// No session ran, so nothing is logged, but cleanup still sweeps
	// leftovers from an unclean previous run.
	assert.Empty(t, store.records)
	assert.Equal(t, 1, hosts.deactivations)
}

func TestEngine_ProbeFailureHoldsMode(t *testing.T) {
	kill := &mockAction{name: "kill"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{kill}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	e.OnProbeFailure(tick(1))
	e.OnProbeFailure(tick(2))

	st := e.State()
	assert.Equal(t, domain.ModeDistracted, st.Mode)
	require.NotNil(t, st.LastError)
	assert.Equal(t, domain.ErrorClassProbe, st.LastError.Class)

	// Enforcement keeps converging while the probe is down.
	assert.Equal(t, 3, kill.activations)
	require.Len(t, store.records, 1)
}

func TestEngine_ActivateFailureRetriesWhileDistracted(t *testing.T) {
	hosts := &mockAction{name: "hosts", activateErr: errors.New("permission denied")}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	assert.False(t, hosts.Active())

	st := e.State()
	require.NotNil(t, st.LastError)
	assert.Equal(t, domain.ErrorClassEnforcement, st.LastError.Class)

	hosts.activateErr = nil
	e.OnClassified(domain.CategoryDistracting, "youtube", tick(1))
	assert.True(t, hosts.Active())
}

func TestEngine_DeactivateFailureRetriesAfterLeaving(t *testing.T) {
	audio := &mockAction{name: "audio"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{audio}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(0))
	audio.deactivateErr = errors.New("pactl exited 1")
	e.OnClassified(domain.CategoryProductive, "code", tick(1))
	assert.True(t, audio.Active())

	audio.deactivateErr = nil
	e.OnClassified(domain.CategoryProductive, "code", tick(2))
	assert.False(t, audio.Active())
}

func TestEngine_AppendFailureQueuesInOrder(t *testing.T) {
	store := &mockStore{appendErr: errors.New("disk full")}
	e := NewEngine(nil, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryProductive, "code", tick(0))
	e.OnClassified(domain.CategoryDistracting, "firefox", tick(1))

	assert.Empty(t, store.records)
	st := e.State()
	assert.True(t, st.Degraded)
	require.NotNil(t, st.LastError)
	assert.Equal(t, domain.ErrorClassPersistence, st.LastError.Class)

	// Store recovers; the queue drains in append order on the next poll.
	store.appendErr = nil
	e.OnClassified(domain.CategoryDistracting, "firefox", tick(2))

	require.Len(t, store.records, 2)
	assert.Equal(t, []domain.Mode{
		domain.ModeProductive,
		domain.ModeDistracted,
	}, modesOf(store.records))
	assert.False(t, e.State().Degraded)
}

func TestEngine_StateSnapshot(t *testing.T) {
	hosts := &mockAction{name: "hosts"}
	store := &mockStore{}
	e := NewEngine([]domain.EnforcementAction{hosts}, store, "run-1", zap.NewNop())

	e.OnClassified(domain.CategoryDistracting, "youtube", tick(4))

	st := e.State()
	assert.Equal(t, domain.ModeDistracted, st.Mode)
	assert.Equal(t, tick(4), st.Since)
	assert.Equal(t, "youtube", st.Subject)
	assert.True(t, st.Enforcement["hosts"])
	assert.False(t, st.Degraded)
}
