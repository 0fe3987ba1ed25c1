package commands

import (
	"context"
	"runtime"
)

// Yarn wraps a CommandRunner for yarn invocations.
type Yarn struct {
	runner CommandRunner
}

func NewYarn(runner CommandRunner) *Yarn {
	return &Yarn{runner: runner}
}

func yarnCommand() string {
	if runtime.GOOS == "windows" {
		return "yarn.cmd"
	}
	return "yarn"
}

// Run invokes yarn with the given arguments and extra environment.
func (y *Yarn) Run(ctx context.Context, env []string, args ...string) error {
	return y.RunIn(ctx, "", env, args...)
}

// RunIn is Run bound to a working directory.
func (y *Yarn) RunIn(ctx context.Context, dir string, env []string, args ...string) error {
	return y.runner.Run(ctx, Command{Name: yarnCommand(), Args: args, Dir: dir, Env: env})
}

// InstallDeps runs a bare yarn to install project dependencies.
func (y *Yarn) InstallDeps(ctx context.Context) error {
	return y.Run(ctx, nil)
}

// InstallDepsIn installs the dependencies of a nested package.
func (y *Yarn) InstallDepsIn(ctx context.Context, dir string) error {
	return y.RunIn(ctx, dir, nil)
}
