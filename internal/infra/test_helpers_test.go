package infra

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// mockCommandRunner is a test double for CommandRunner. Responses are
// scripted per full command line; every invocation is recorded.
type mockCommandRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func newMockCommandRunner() *mockCommandRunner {
	return &mockCommandRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func cmdline(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// stubOutput scripts stdout for one command line.
func (m *mockCommandRunner) stubOutput(line, out string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[line] = out
}

// stubError scripts a failure for one command line.
func (m *mockCommandRunner) stubError(line string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[line] = err
}

// Run succeeds unless an error was scripted for the command line.
func (m *mockCommandRunner) Run(_ context.Context, name string, args ...string) error {
	line := cmdline(name, args...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, line)
	return m.errs[line]
}

// Output returns the scripted stdout. An unscripted command line fails,
// so tests state everything a probe is expected to execute.
func (m *mockCommandRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	line := cmdline(name, args...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, line)
	if err := m.errs[line]; err != nil {
		return nil, err
	}
	out, ok := m.outputs[line]
	if !ok {
		return nil, fmt.Errorf("no output scripted for %q", line)
	}
	return []byte(out), nil
}

// callCount returns how often a command line was executed.
func (m *mockCommandRunner) callCount(line string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == line {
			n++
		}
	}
	return n
}

// lastCall returns the most recent command line with the given prefix.
func (m *mockCommandRunner) lastCall(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(m.calls[i], prefix) {
			return m.calls[i]
		}
	}
	return ""
}

var _ CommandRunner = (*mockCommandRunner)(nil)

// mockProcessManager is a test double for domain.ProcessManager.
type mockProcessManager struct {
	mu         sync.Mutex
	byPattern  map[string][]int
	findErr    error
	termErrs   map[int]error
	terminated []int
	busiest    string
	busiestErr error
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{
		byPattern: make(map[string][]int),
		termErrs:  make(map[int]error),
	}
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return append([]int(nil), m.byPattern[pattern]...), nil
}

func (m *mockProcessManager) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.termErrs[pid]; err != nil {
		return err
	}
	m.terminated = append(m.terminated, pid)
	return nil
}

func (m *mockProcessManager) BusiestProcess() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busiestErr != nil {
		return "", m.busiestErr
	}
	return m.busiest, nil
}

func (m *mockProcessManager) terminatedPIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.terminated...)
}

var _ domain.ProcessManager = (*mockProcessManager)(nil)
