package check

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/pkg/logger"
)

const nightlyRounds = 10

// BrowserTests dispatches the browser test pass to one of four
// platform strategies, with platform-specific state cleanup first.
type BrowserTests struct {
	cfg        *config.Config
	yarn       *commands.Yarn
	cleaner    StateCleaner
	remoteEdge RemoteExecutor
	remoteIE   RemoteExecutor

	// swapped out in tests
	background func(cmd commands.Command, body func() error) error
	workingDir func() (string, error)
}

func NewBrowserTests(cfg *config.Config, yarn *commands.Yarn, cleaner StateCleaner, remoteEdge, remoteIE RemoteExecutor) *BrowserTests {
	return &BrowserTests{
		cfg:        cfg,
		yarn:       yarn,
		cleaner:    cleaner,
		remoteEdge: remoteEdge,
		remoteIE:   remoteIE,
		background: commands.Background,
		workingDir: os.Getwd,
	}
}

func (b *BrowserTests) Run(ctx context.Context, runner Runner, env string) error {
	switch runner {
	case RunnerLinux:
		return b.runKarma(ctx, env, b.cfg.Browsers.Linux)

	case RunnerMacos:
		b.cleaner.ClearSafariState(ctx)
		// Safari pauses background tabs when the display sleeps, which
		// stalls the suite; keep the display awake for the duration.
		return b.background(commands.Command{Name: "caffeinate", Args: []string{"-dims"}}, func() error {
			return b.runKarma(ctx, env, b.cfg.Browsers.Macos)
		})

	case RunnerWindowsEdge:
		b.cleaner.ClearEdgeState()
		return b.runRemoteKarma(ctx, b.remoteEdge, env, b.cfg.Browsers.WindowsEdge)

	case RunnerWindowsIE:
		b.cleaner.ClearIEState(ctx)
		return b.runRemoteKarma(ctx, b.remoteIE, env, b.cfg.Browsers.WindowsIE)

	default:
		return fmt.Errorf("unsupported runner %q", runner)
	}
}

// RunNightly runs the browser pass ten times, collecting the failing
// round numbers instead of stopping at the first one.
func (b *BrowserTests) RunNightly(ctx context.Context, runner Runner, env string) error {
	log := logger.WithComponent("check")

	var failed []int
	for round := 1; round <= nightlyRounds; round++ {
		log.Info().Int("round", round).Msg("Running browser tests")
		if err := b.Run(ctx, runner, env); err != nil {
			log.Error().Err(err).Int("round", round).Msg("Browser tests failed")
			failed = append(failed, round)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("browser tests failed on rounds %v", failed)
	}
	return nil
}

func (b *BrowserTests) runKarma(ctx context.Context, env, browsers string) error {
	vars := []string{b.cfg.Project.ConfigEnvVar + "=" + env}
	return b.yarn.Run(ctx, vars, "karma", "--browsers", browsers)
}

// runRemoteKarma dispatches the karma command to the agent on the
// Windows host, bound to the current working directory and carrying the
// full environment plus the project config.
func (b *BrowserTests) runRemoteKarma(ctx context.Context, remote RemoteExecutor, env, browsers string) error {
	cwd, err := b.workingDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	remoteEnv := environMap()
	remoteEnv[b.cfg.Project.ConfigEnvVar] = env

	cmd := fmt.Sprintf("yarn karma --browsers %s", browsers)
	return remote.RunCommand(ctx, cmd, cwd, remoteEnv)
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
