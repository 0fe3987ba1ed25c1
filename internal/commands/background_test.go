//go:build !windows

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startPidWriter returns a command that records its own pid (the group
// leader's) then blocks, plus the path the pid lands in.
func pidWriterCommand(t *testing.T) (Command, string) {
	t.Helper()
	pidFile := filepath.Join(t.TempDir(), "pid")
	cmd := Command{
		Name: "sh",
		Args: []string{"-c", fmt.Sprintf("echo $$ > %s; sleep 30", pidFile)},
	}
	return cmd, pidFile
}

func waitForPid(t *testing.T, pidFile string) int {
	t.Helper()
	var pid int
	require.Eventually(t, func() bool {
		content, err := os.ReadFile(pidFile)
		if err != nil || len(content) == 0 {
			return false
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(content)))
		if err != nil {
			return false
		}
		pid = n
		return true
	}, 5*time.Second, 20*time.Millisecond)
	return pid
}

func assertProcessGone(t *testing.T, pid int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return syscall.Kill(pid, 0) != nil
	}, 5*time.Second, 20*time.Millisecond, "process group leader %d still alive", pid)
}

func TestBackgroundTerminatesGroupOnSuccess(t *testing.T) {
	cmd, pidFile := pidWriterCommand(t)

	var pid int
	err := Background(cmd, func() error {
		pid = waitForPid(t, pidFile)
		return nil
	})
	require.NoError(t, err)
	assertProcessGone(t, pid)
}

func TestBackgroundTerminatesGroupOnBodyError(t *testing.T) {
	cmd, pidFile := pidWriterCommand(t)
	bodyErr := errors.New("step failed")

	var pid int
	err := Background(cmd, func() error {
		pid = waitForPid(t, pidFile)
		return bodyErr
	})
	require.ErrorIs(t, err, bodyErr)
	assertProcessGone(t, pid)
}

func TestBackgroundToleratesEarlyExit(t *testing.T) {
	// A background process that exits on its own must not turn the scope
	// into an error.
	err := Background(Command{Name: "true"}, func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.NoError(t, err)
}

func TestBackgroundStartFailure(t *testing.T) {
	err := Background(Command{Name: "/nonexistent/binary"}, func() error {
		t.Fatal("body must not run when the process cannot start")
		return nil
	})
	assert.Error(t, err)
}
