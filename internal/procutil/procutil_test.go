//go:build !windows

package procutil

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/webcheck/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithMode(logger.ModeTest)
	os.Exit(m.Run())
}

// startDecoy copies the sleep binary under a unique name so the kill
// cannot hit unrelated processes.
func startDecoy(t *testing.T) (string, int) {
	t.Helper()

	sleepPath, err := exec.LookPath("sleep")
	require.NoError(t, err)

	name := fmt.Sprintf("wcdecoy%d", os.Getpid())
	decoyPath := filepath.Join(t.TempDir(), name)

	src, err := os.Open(sleepPath)
	require.NoError(t, err)
	defer src.Close()
	dst, err := os.OpenFile(decoyPath, os.O_CREATE|os.O_WRONLY, 0o755)
	require.NoError(t, err)
	_, err = io.Copy(dst, src)
	require.NoError(t, err)
	require.NoError(t, dst.Close())

	cmd := exec.Command(decoyPath, "60")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	go func() { _ = cmd.Wait() }()

	return name, cmd.Process.Pid
}

func TestFindByName(t *testing.T) {
	name, pid := startDecoy(t)

	require.Eventually(t, func() bool {
		for _, p := range FindByName(name) {
			if int(p.Pid) == pid {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)

	assert.Empty(t, FindByName("definitely-not-a-process-name"))
}

func TestPidsByName(t *testing.T) {
	name, pid := startDecoy(t)

	require.Eventually(t, func() bool {
		for _, p := range PidsByName(name) {
			if int(p) == pid {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)
}

func TestKillByName(t *testing.T) {
	name, pid := startDecoy(t)

	require.Eventually(t, func() bool {
		return len(FindByName(name)) > 0
	}, 5*time.Second, 100*time.Millisecond)

	KillByName(name)

	assert.Eventually(t, func() bool {
		return syscall.Kill(pid, 0) != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestKillByNameNoMatchIsNoop(t *testing.T) {
	// Must not panic or error when nothing matches.
	KillByName("definitely-not-a-process-name")
}
