//go:build !windows

package toolexec

import (
	"os/exec"
	"syscall"
	"time"
)

// configureProcessGroup puts the child in its own process group so that a
// cancelled context kills the tool together with any helpers it spawned.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second
}
