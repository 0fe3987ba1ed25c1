//go:build windows

package agent

import "os/exec"

func shellCommand(cmdline string) *exec.Cmd {
	return exec.Command("cmd", "/C", cmdline)
}
