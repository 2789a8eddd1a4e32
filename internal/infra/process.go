package infra

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes matching the pattern (case-insensitive).
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	patternLower := strings.ToLower(pattern)

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}

		if strings.EqualFold(name, pattern) || strings.Contains(strings.ToLower(name), patternLower) {
			found = append(found, int(p.Pid))
		}
	}

	return found, nil
}

// Terminate asks a process to exit via SIGTERM.
func (pm *ProcessManagerImpl) Terminate(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	return p.Terminate()
}

// BusiestProcess returns the lowercase name of the process with the highest
// CPU share since it started.
func (pm *ProcessManagerImpl) BusiestProcess() (string, error) {
	procs, err := process.Processes()
	if err != nil {
		return "", err
	}

	var bestName string
	bestCPU := -1.0

	for _, p := range procs {
		pct, err := p.CPUPercent()
		if err != nil {
			continue
		}
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		if pct > bestCPU {
			bestCPU = pct
			bestName = strings.ToLower(name)
		}
	}

	if bestName == "" {
		return "", fmt.Errorf("no readable processes")
	}
	return bestName, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
