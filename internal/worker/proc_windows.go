//go:build windows

package worker

import (
	"os/exec"
	"strconv"
	"syscall"
)

// SetSysProcAttr hides the console window so no yt-dlp/aria2c console pops up.
func SetSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}

// Interrupt has no POSIX-signal equivalent on Windows reachable without a
// console; on this platform cancellation always goes straight to KillTree.
func Interrupt(pid int) error {
	return KillTree(pid)
}

// KillTree force-terminates pid and its entire process tree via taskkill.
func KillTree(pid int) error {
	cmd := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid))
	return cmd.Run()
}
