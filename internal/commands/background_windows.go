//go:build windows

package commands

import (
	"errors"
	"os"
	"os/exec"
)

// Windows has no process groups in the POSIX sense; the direct child is
// killed and its children are left to the job object, if any.
func setDetached(cmd *exec.Cmd) {}

func terminate(p *os.Process) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func kill(p *os.Process) error {
	return terminate(p)
}
