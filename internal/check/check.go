// Package check sequences a full CI pass: dependency install, build,
// linters, node tests against MongoDB, and a browser test pass for one
// runner platform.
package check

import (
	"context"
	"fmt"

	"github.com/driftlabs/webcheck/internal/commands"
)

// Runner identifies the platform/browser combination for a test pass.
type Runner string

const (
	RunnerLinux       Runner = "linux"
	RunnerMacos       Runner = "macos"
	RunnerWindowsEdge Runner = "windows-edge"
	RunnerWindowsIE   Runner = "windows-ie"
)

// ParseRunner rejects anything outside the supported set so a typoed
// runner name fails the job instead of silently skipping the pass.
func ParseRunner(s string) (Runner, error) {
	switch Runner(s) {
	case RunnerLinux, RunnerMacos, RunnerWindowsEdge, RunnerWindowsIE:
		return Runner(s), nil
	}
	return "", fmt.Errorf("unsupported runner %q (expected linux, macos, windows-edge or windows-ie)", s)
}

// DatabaseScope runs body with a ready database available, tearing it
// down afterwards on every exit path.
type DatabaseScope interface {
	Run(ctx context.Context, body func() error) error
}

// StateCleaner clears browser state ahead of a test pass.
type StateCleaner interface {
	ClearEdgeState()
	ClearIEState(ctx context.Context)
	ClearSafariState(ctx context.Context)
}

// RemoteExecutor dispatches a command to a remote browser host.
type RemoteExecutor interface {
	RunCommand(ctx context.Context, cmd, workingDir string, env map[string]string) error
}

// Check sequences the whole CI pass for one runner.
type Check struct {
	yarn    *commands.Yarn
	linters *Linters
	node    *NodeTests
	browser *BrowserTests
}

func New(yarn *commands.Yarn, linters *Linters, node *NodeTests, browser *BrowserTests) *Check {
	return &Check{
		yarn:    yarn,
		linters: linters,
		node:    node,
		browser: browser,
	}
}

// Run installs dependencies, runs the linux-only gates (build, lint,
// node tests, in that order), then the browser pass. Every step is a
// hard gate: the first failure aborts the run. Nightly runs skip the
// linux gates; the regular pipeline already covered them and the point
// of the nightly is to shake out browser flakiness across rounds.
func (c *Check) Run(ctx context.Context, runner Runner, env string, nightly bool) error {
	if err := c.yarn.InstallDeps(ctx); err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}

	if runner == RunnerLinux && !nightly {
		if err := c.yarn.Run(ctx, nil, "build:all"); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		if err := c.linters.Run(ctx); err != nil {
			return err
		}
		if err := c.node.Run(ctx, env); err != nil {
			return err
		}
	}

	if nightly {
		return c.browser.RunNightly(ctx, runner, env)
	}
	return c.browser.Run(ctx, runner, env)
}
