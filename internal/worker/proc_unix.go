//go:build !windows

package worker

import (
	"os/exec"
	"syscall"
)

// SetSysProcAttr starts the child in its own process group (there is no
// console to hide on POSIX), so KillTree can signal the whole group.
// Interrupt still targets the child pid alone.
func SetSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Interrupt sends SIGINT to the child, asking it to terminate or finalize cleanly.
func Interrupt(pid int) error {
	return syscall.Kill(pid, syscall.SIGINT)
}

// KillTree force-terminates the child and, since it was started in its own
// process group, any descendants it spawned.
func KillTree(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
