package commands

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/driftlabs/webcheck/pkg/logger"
)

// termGrace is how long a background process group gets to exit after
// SIGTERM before it is killed hard.
const termGrace = 10 * time.Second

// Background starts cmd detached in its own process group, runs body,
// and terminates the whole group on every exit path. The body's error
// takes precedence over a termination failure; a termination failure is
// only returned when the body itself succeeded.
func Background(cmd Command, body func() error) error {
	log := logger.WithComponent("commands")

	execCmd := exec.Command(cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	setDetached(execCmd)

	if err := execCmd.Start(); err != nil {
		return fmt.Errorf("failed to start background process %s: %w", cmd.String(), err)
	}
	log.Info().Str("cmd", cmd.String()).Int("pid", execCmd.Process.Pid).Msg("Background process started")

	done := make(chan struct{})
	go func() {
		_ = execCmd.Wait()
		close(done)
	}()

	bodyErr := body()

	if err := terminate(execCmd.Process); err != nil {
		log.Warn().Err(err).Str("cmd", cmd.String()).Msg("Background process termination failed")
		if bodyErr == nil {
			return fmt.Errorf("failed to terminate background process %s: %w", cmd.String(), err)
		}
		return bodyErr
	}

	select {
	case <-done:
	case <-time.After(termGrace):
		log.Warn().Str("cmd", cmd.String()).Msg("Background process ignored SIGTERM, killing")
		_ = kill(execCmd.Process)
		<-done
	}
	log.Debug().Str("cmd", cmd.String()).Msg("Background process terminated")

	return bodyErr
}
