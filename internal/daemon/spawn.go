package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// Spawn starts a detached daemon process by re-executing the current
// binary with the hidden "run" command. The child survives the parent
// and has no terminal attached.
func Spawn() (pid int, err error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(executable, "run")

	// New session, so closing the spawning terminal does not kill the daemon.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid = cmd.Process.Pid

	// Release so the child is reparented to init rather than left as a
	// zombie waiting on us.
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}

	return pid, nil
}
