package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/driftlabs/webcheck/pkg/logger"
)

// Command describes one external tool invocation. Env holds extra
// KEY=VALUE pairs appended to the inherited environment.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandRunner abstracts external command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands via os/exec, inheriting stdout and stderr.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) error {
	log := logger.WithComponent("commands")
	log.Info().Str("cmd", c.String()).Msg("Running")

	execCmd := exec.CommandContext(ctx, c.Name, c.Args...)
	execCmd.Dir = c.Dir
	if len(c.Env) > 0 {
		execCmd.Env = append(os.Environ(), c.Env...)
	}
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("command failed: %s: %w", c.String(), err)
	}
	return nil
}

// Output runs the command and returns its trimmed stdout.
func Output(ctx context.Context, c Command) (string, error) {
	execCmd := exec.CommandContext(ctx, c.Name, c.Args...)
	execCmd.Dir = c.Dir
	if len(c.Env) > 0 {
		execCmd.Env = append(os.Environ(), c.Env...)
	}

	out, err := execCmd.Output()
	if err != nil {
		return "", fmt.Errorf("command failed: %s: %w", c.String(), err)
	}
	return strings.TrimSpace(string(out)), nil
}
